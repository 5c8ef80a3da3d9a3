package storage

import "time"

// Option configures Put.
type Option func(*putOptions)

type putOptions struct {
	key         string
	prefix      string
	contentType string
	acl         ACL
	rules       []ValidationRule
}

// WithKey stores the object at key, overwriting whatever is there.
func WithKey(key string) Option {
	return func(o *putOptions) { o.key = key }
}

// WithPrefix puts generated keys under prefix. Ignored when WithKey is set.
func WithPrefix(prefix string) Option {
	return func(o *putOptions) { o.prefix = prefix }
}

// WithContentType skips MIME detection.
func WithContentType(ct string) Option {
	return func(o *putOptions) { o.contentType = ct }
}

func WithACL(acl ACL) Option {
	return func(o *putOptions) { o.acl = acl }
}

// WithValidation runs rules in PutFile before anything is uploaded.
func WithValidation(rules ...ValidationRule) Option {
	return func(o *putOptions) { o.rules = append(o.rules, rules...) }
}

// URLOption configures URL.
type URLOption func(*urlOptions)

type urlOptions struct {
	expiry time.Duration
	public bool
}

// WithExpiry sets the lifetime of a signed URL. Default: 15 minutes.
func WithExpiry(d time.Duration) URLOption {
	return func(o *urlOptions) {
		if d > 0 {
			o.expiry = d
		}
	}
}

// WithPublic returns the unsigned public URL.
func WithPublic() URLOption {
	return func(o *urlOptions) { o.public = true }
}
