package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"http-sniffer/domain/port"
	"http-sniffer/infrastructure/config"
	httpclient "http-sniffer/infrastructure/http"
	"http-sniffer/infrastructure/logging"
)

type fetchOptions struct {
	Method  string
	Headers []string
	Data    string
	Output  string
}

func newFetchCmd() *cobra.Command {
	opts := fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch [flags] <url>",
		Short: "Send one request through the tap and print its trace.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), configManager.Get(), opts, args[0], cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Method, "request", "X", "", "请求方法 (默认 GET，带 --data 时为 POST)")
	flags.StringArrayVarP(&opts.Headers, "header", "H", nil, "请求头，格式 'Name: value'，可重复")
	flags.StringVarP(&opts.Data, "data", "d", "", "请求体")
	flags.StringVarP(&opts.Output, "output", "o", "", "响应体写入的文件，'-' 表示标准输出")
	return cmd
}

func runFetch(ctx context.Context, cfg *config.Config, opts fetchOptions, rawURL string, stdout io.Writer) error {
	req, err := buildFetchRequest(ctx, opts, rawURL)
	if err != nil {
		return err
	}

	clientCfg := httpclient.ClientConfigFrom(cfg.Transport)
	t, closer := newTap(cfg, httpclient.NewTransport(clientCfg), port.NopMetrics{})
	defer closer.Close()
	defer t.Close()

	client := httpclient.NewHTTPClient(clientCfg, t)
	resp, err := client.Do(req)
	if err != nil {
		t.Wait()
		return err
	}

	out, closeOut, err := openOutput(opts.Output, stdout)
	if err != nil {
		resp.Body.Close()
		t.Wait()
		return err
	}
	defer closeOut()

	n, copyErr := io.Copy(out, resp.Body)
	resp.Body.Close()
	t.Wait()

	logging.GeneralSugar.Debugw("fetch 完成",
		port.FieldStatusCode, resp.StatusCode,
		port.FieldBodySize, humanize.Bytes(uint64(n)),
	)
	return copyErr
}

func buildFetchRequest(ctx context.Context, opts fetchOptions, rawURL string) (*http.Request, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
		if opts.Data != "" {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if opts.Data != "" {
		body = strings.NewReader(opts.Data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	for _, h := range opts.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("无效的请求头 %q，格式应为 'Name: value'", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return req, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	switch path {
	case "":
		return io.Discard, func() {}, nil
	case "-":
		return stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("创建输出文件失败: %w", err)
	}
	return f, func() { f.Close() }, nil
}
