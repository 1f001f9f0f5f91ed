package nova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"github.com/vcslav-v/pb-admin/lib/htmlutil"
	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/restyutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	loginPath      = "/admin/login"
	xsrfCookie     = "XSRF-TOKEN"
	defaultAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultTimeout = time.Second * 30
)

// DefaultAttachDelay is the pacing between attach requests used by
// configurations that do not set one.
const DefaultAttachDelay = time.Millisecond * 100

type Options struct {
	BaseURL  string
	Login    string
	Password string

	// optional HTTP basic auth in front of the panel
	BasicAuthUser     string
	BasicAuthPassword string

	// WriteMode enables state-changing operations.
	WriteMode bool
	// AttachDelay paces consecutive attach requests, zero disables pacing.
	AttachDelay time.Duration

	Timeout          time.Duration
	UserAgent        string
	CloudflareBypass bool
}

// Client is an authenticated session with one panel. It is safe for
// concurrent use once connected.
type Client struct {
	http    *resty.Client
	fetch   *resty.Client
	baseURL *url.URL
	opts    Options
}

func newHttpClient(opts Options, host string) (*resty.Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	agent := opts.UserAgent
	if agent == "" {
		agent = defaultAgent
	}
	client.SetHeader("user-agent", agent)
	if host != "" {
		client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(host))
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client, nil
}

// NewClient builds the transport of a session without logging in.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, err
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, &ValidationError{Reason: fmt.Sprintf("base url must be absolute, got %q", opts.BaseURL)}
	}

	client, err := newHttpClient(opts, baseURL.Hostname())
	if err != nil {
		return nil, err
	}
	client.SetBaseURL(baseURL.String())
	if opts.BasicAuthUser != "" {
		client.SetBasicAuth(opts.BasicAuthUser, opts.BasicAuthPassword)
	}

	// images are fetched from arbitrary hosts, the panel credentials are
	// never sent there
	fetch, err := newHttpClient(opts, "")
	if err != nil {
		return nil, err
	}

	return &Client{
		http:    client,
		fetch:   fetch,
		baseURL: baseURL,
		opts:    opts,
	}, nil
}

// Dial creates a client and logs in.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	c, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	err = c.Connect(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Connect performs the form login: the hidden _token of the login page is
// posted back along with the credentials. On success the cookie jar holds
// the session and XSRF cookies.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Connect")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return &AuthenticationError{Reason: "fetching login page", Err: err}
	}
	if !isSuccess(res.StatusCode()) {
		span.SetStatus(codes.Error, "login page returned an error")
		return &AuthenticationError{Status: res.StatusCode(), Reason: "login page: " + res.Status()}
	}

	doc, err := htmlutil.ParseDocument(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page")
		return err
	}
	token := htmlutil.InputValue(ctx, doc, "_token")
	if token == "" {
		span.SetStatus(codes.Error, "failed to find login token")
		return &AuthenticationError{Reason: "login page has no _token input"}
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":    c.opts.Login,
			"password": c.opts.Password,
			"remember": "on",
			"_token":   token,
		}).
		Post(loginPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return &AuthenticationError{Reason: "posting credentials", Err: err}
	}
	if !isSuccess(res.StatusCode()) {
		span.SetStatus(codes.Error, "login was rejected")
		return &AuthenticationError{Status: res.StatusCode(), Reason: truncateBody(res.String())}
	}

	// bad credentials redirect back to the login form
	if res.RawResponse != nil && res.RawResponse.Request != nil &&
		strings.HasSuffix(strings.TrimSuffix(res.RawResponse.Request.URL.Path, "/"), loginPath) {
		reason := "credentials were not accepted"
		doc, err := htmlutil.ParseDocument(res.Body())
		if err == nil {
			flash := htmlutil.CleanText(doc.Find(".alert, .text-danger, .invalid-feedback, .help-block"))
			if flash != "" {
				reason = flash
			}
		}
		span.SetStatus(codes.Error, "still on the login page")
		return &AuthenticationError{Status: res.StatusCode(), Reason: reason}
	}

	slog.InfoContext(ctx, "logged in", "site", c.baseURL.Host, "write_mode", c.opts.WriteMode)
	return nil
}

// CSRFToken reads the current XSRF cookie. The panel rotates it, so it is
// looked up again on every request.
func (c *Client) CSRFToken() string {
	jar := c.http.GetClient().Jar
	if jar == nil {
		return ""
	}
	for _, cookie := range jar.Cookies(c.baseURL) {
		if cookie.Name != xsrfCookie {
			continue
		}
		value, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			return cookie.Value
		}
		return value
	}
	return ""
}

func (c *Client) WriteMode() bool {
	return c.opts.WriteMode
}

func (c *Client) AttachDelay() time.Duration {
	return c.opts.AttachDelay
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// RequireWrite fails when the session is read-only. Every operation that
// changes remote state calls it before sending anything.
func (c *Client) RequireWrite(op string) error {
	if c.opts.WriteMode {
		return nil
	}
	return &PermissionError{Op: op}
}

// Close releases idle connections of the transport.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
	c.fetch.GetClient().CloseIdleConnections()
}

type Request struct {
	Method string
	Path   string
	Params url.Values
	Form   *Form
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func truncateBody(body string) string {
	if len(body) > 2048 {
		return body[:2048]
	}
	return body
}

// Do sends one authenticated request. Mutating verbs carry the XSRF
// headers and forms are sent as multipart with a fresh boundary. Any
// non-2xx status is returned as *RemoteError. There are no retries, a
// mutating request cancelled through ctx leaves the remote state unknown.
func (c *Client) Do(ctx context.Context, req Request) (*resty.Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if len(req.Params) > 0 {
		r.SetQueryParamsFromValues(req.Params)
	}
	if mutating(req.Method) {
		token := c.CSRFToken()
		r.SetHeader("X-CSRF-TOKEN", token)
		r.SetHeader("X-XSRF-TOKEN", token)
		r.SetHeader("X-Requested-With", "XMLHttpRequest")
	}
	if req.Form != nil {
		boundary, err := random.String(32)
		if err != nil {
			return nil, err
		}
		var body bytes.Buffer
		contentType, err := req.Form.Encode(&body, boundary)
		if err != nil {
			return nil, err
		}
		r.SetHeader("Content-Type", contentType)
		r.SetBody(body.Bytes())
	}

	res, err := r.Execute(req.Method, req.Path)
	if err != nil {
		requestCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", req.Method),
			attribute.Int("status", 0),
		))
		return nil, err
	}
	requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.Int("status", res.StatusCode()),
	))
	if !isSuccess(res.StatusCode()) {
		return res, &RemoteError{
			Method: req.Method,
			Path:   req.Path,
			Status: res.StatusCode(),
			Body:   truncateBody(res.String()),
		}
	}
	return res, nil
}

// GetJSON fetches path and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	res, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Params: params})
	if err != nil {
		return err
	}
	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		return &DataShapeError{Resource: path, Reason: err.Error()}
	}
	return nil
}

// Submit posts a form. When out is non-nil the response body is decoded
// into it.
func (c *Client) Submit(ctx context.Context, path string, params url.Values, form *Form, out any) error {
	res, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Params: params, Form: form})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(res.Body())) == 0 {
		return nil
	}
	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		return &DataShapeError{Resource: path, Reason: err.Error()}
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, path string, params url.Values) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Params: params})
	return err
}

func (c *Client) sameHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host == "" || strings.EqualFold(u.Host, c.baseURL.Host)
}

// PrepareImage turns a pending image into normalized JPEG bytes. Images
// that only carry a URL are downloaded first. References and images that
// were already prepared are left untouched, so an image is fetched and
// normalized at most once.
func (c *Client) PrepareImage(ctx context.Context, img *Image, bounds imageutil.Bounds) error {
	if img == nil || img.IsReference() || img.Prepared {
		return nil
	}

	ctx, span := tracer.Start(ctx, "client:PrepareImage")
	defer span.End()

	if len(img.Data) == 0 {
		if img.OriginalURL == "" {
			span.SetStatus(codes.Error, "nothing to prepare")
			return &ValidationError{Resource: "image", Reason: "either an original url or data must be provided"}
		}

		client := c.fetch
		if c.sameHost(img.OriginalURL) {
			client = c.http
		}
		res, err := client.R().SetContext(ctx).Get(img.OriginalURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch image")
			return err
		}
		if !isSuccess(res.StatusCode()) {
			span.SetStatus(codes.Error, "image fetch returned an error")
			return &RemoteError{
				Method: http.MethodGet,
				Path:   img.OriginalURL,
				Status: res.StatusCode(),
			}
		}
		img.Data = res.Body()
	}

	result, err := imageutil.Normalize(img.Data, bounds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to normalize image")
		return &ValidationError{Resource: "image", Reason: err.Error()}
	}

	img.Data = result.Data
	img.MimeType = result.MimeType
	if img.FileName == "" {
		img.FileName = imageutil.NewFileName()
	}
	img.Prepared = true

	slog.DebugContext(
		ctx, "image prepared",
		"file_name", img.FileName,
		"width", result.Width,
		"height", result.Height,
	)
	return nil
}
