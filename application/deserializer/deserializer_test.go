package deserializer

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPlainText(t *testing.T) {
	out, ok := PlainText{}.Deserialize([]byte("hello"))
	assert.True(t, ok)
	assert.Equal(t, "hello", out)

	_, ok = PlainText{}.Deserialize([]byte{0xff, 0xfe, 0xfd})
	assert.False(t, ok, "非法 UTF-8 应失败")
}

func TestJSON_RoundTrip(t *testing.T) {
	out, ok := JSON{}.Deserialize([]byte(`{"key":"value"}`))
	require.True(t, ok)
	assert.Contains(t, out, "\n", "应多行缩进")

	var got, want any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NoError(t, json.Unmarshal([]byte(`{"key":"value"}`), &want))
	assert.Equal(t, want, got)
}

func TestJSON_KeepsKeyOrder(t *testing.T) {
	out, ok := JSON{}.Deserialize([]byte(`{"b":1,"a":2}`))
	require.True(t, ok)
	assert.Less(t, strings.Index(out, `"b"`), strings.Index(out, `"a"`))
}

func TestJSON_Invalid(t *testing.T) {
	for _, body := range []string{"", "{", "not json", `{"a":}`} {
		_, ok := JSON{}.Deserialize([]byte(body))
		assert.False(t, ok, body)
	}
}

func TestHTML(t *testing.T) {
	body := `<html><head><title>ignored</title><style>p{}</style></head>
<body><h1>Title</h1><p>Hello   <b>world</b></p><script>alert(1)</script>line<br>break</body></html>`

	out, ok := HTML{}.Deserialize([]byte(body))
	require.True(t, ok)
	assert.Equal(t, "Title\nHello world\nline\nbreak", out)
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "ignored")
}

func TestImage(t *testing.T) {
	out, ok := Image{}.Deserialize(pngBytes(t, 3, 2))
	require.True(t, ok)
	assert.Equal(t, "image = [ 3 x 2 ]", out)
	assert.True(t, Image{}.SummarizesBinary())
}

func TestImage_NonImageBytes(t *testing.T) {
	for _, body := range [][]byte{nil, []byte("hello"), {0x89, 'P', 'N', 'G'}} {
		out, ok := Image{}.Deserialize(body)
		assert.False(t, ok)
		assert.Empty(t, out)
	}
}

func TestFormURLEncoded(t *testing.T) {
	out, ok := FormURLEncoded{}.Deserialize([]byte("b=2&a=hello+world&a=x%21"))
	require.True(t, ok)
	assert.Equal(t, "a = hello world\na = x!\nb = 2", out)

	_, ok = FormURLEncoded{}.Deserialize([]byte("a=%zz"))
	assert.False(t, ok)

	_, ok = FormURLEncoded{}.Deserialize(nil)
	assert.False(t, ok)
}

func TestDefaultRegistry_BuiltIns(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{
		PatternFormURLEncoded, PatternJSON, PatternImage,
		PatternPlainText, PatternHTML, PatternMultipart,
	}, r.Patterns())

	tests := []struct {
		contentType string
		want        any
	}{
		{"application/json", JSON{}},
		{"text/html; charset=utf-8", HTML{}},
		{"image/png", Image{}},
		{"text/plain", PlainText{}},
		{"application/x-www-form-urlencoded", FormURLEncoded{}},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			d, ok := r.Resolve(tt.contentType)
			require.True(t, ok)
			assert.IsType(t, tt.want, d)
		})
	}

	d, ok := r.Resolve("multipart/form-data; boundary=B")
	require.True(t, ok)
	assert.IsType(t, &MultipartFormData{}, d)

	_, ok = r.Resolve("application/octet-stream")
	assert.False(t, ok)
}
