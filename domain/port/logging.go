package port

import "time"

const (
	FieldExchangeID  = "exchange_id"
	FieldMethod      = "method"
	FieldURL         = "url"
	FieldHost        = "host"
	FieldKind        = "kind"
	FieldStatusCode  = "status_code"
	FieldDurationMS  = "duration_ms"
	FieldBodySize    = "body_size"
	FieldContentType = "content_type"
	FieldReason      = "reason"
)

func ExchangeID(id string) Field {
	return String(FieldExchangeID, id)
}

func Method(m string) Field {
	return String(FieldMethod, m)
}

func URL(u string) Field {
	return String(FieldURL, u)
}

func Host(h string) Field {
	return String(FieldHost, h)
}

func Kind(k LogKind) Field {
	return String(FieldKind, string(k))
}

func StatusCode(code int) Field {
	return Int(FieldStatusCode, code)
}

func DurationMS(d time.Duration) Field {
	return Int64(FieldDurationMS, d.Milliseconds())
}

func BodySize(s string) Field {
	return String(FieldBodySize, s)
}

func ContentType(ct string) Field {
	return String(FieldContentType, ct)
}

func Reason(r string) Field {
	return String(FieldReason, r)
}
