package session

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/creator-relay/credentials"
	"github.com/jrsteele09/creator-relay/oauthmodel"
	"github.com/tidwall/gjson"
)

const (
	relayQRGetPath   = relayAPINamespace + "/qrcode/get"
	relayQRCheckPath = relayAPINamespace + "/qrcode/check"

	clientTicketPlaceholder = "{client_ticket}"
)

var codeParamPattern = regexp.MustCompile(`code=([^&#]+)`)

// QRSession is one issued QR code.
type QRSession struct {
	Token        string
	ClientTicket string
	ScanURL      string
	Status       oauthmodel.QRStatusType
}

// QRStatus is one observation of a QR session at the provider.
type QRStatus struct {
	Status       oauthmodel.QRStatusType
	RedirectURI  string
	ClientTicket string
}

// QRState is the local progress of a QR login.
type QRState string

const (
	QRStateIdle       QRState = "idle"
	QRStateRequesting QRState = "requesting"
	QRStateWaiting    QRState = "waiting"
	QRStateScanned    QRState = "scanned"
	QRStateConfirmed  QRState = "confirmed"
	QRStateExchanging QRState = "exchanging"
	QRStateDone       QRState = "done"
	QRStateExpired    QRState = "expired"
	QRStateError      QRState = "error"
)

// QRResult is the terminal outcome of a QR login.
type QRResult struct {
	State  QRState
	Tokens *oauthmodel.TokenPair
	Status oauthmodel.QRStatusType
	Err    error
}

// QRLogin is a running QR login. It polls until a terminal state is reached
// or it is stopped. Session is fixed once StartQRLogin returns; progress is
// reported through onState and the final QRResult.
type QRLogin struct {
	Session *QRSession

	client  *Client
	onState func(QRState)
	cancel  context.CancelFunc
	done    chan struct{}
	result  QRResult

	stopOnce sync.Once
}

// GetQRCode asks the relay for a new QR code bound to a fresh client ticket.
func (c *Client) GetQRCode(ctx context.Context) (*QRSession, error) {
	status, body, err := c.postRelayJSON(ctx, relayQRGetPath, oauthmodel.QRCodeRequest{
		Scope: oauthmodel.JoinScopes(c.cfg.Scopes),
		State: generateRandomString(stateNonceLength),
	})
	if err != nil {
		return nil, &APIError{Kind: oauthmodel.ErrRelay, Err: err}
	}
	if !isSuccess(status) {
		return nil, classifyFailure(status, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Status: status, Body: body}
	}

	sess := &QRSession{
		Token:        responseField(body, "token"),
		ClientTicket: uuid.NewString(),
		Status:       oauthmodel.QRStatusNew,
	}
	if sess.Token == "" {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Status: status, Message: "no QR token in response", Body: body}
	}
	sess.ScanURL = withClientTicket(responseField(body, "scan_qrcode_url"), sess.ClientTicket)

	if err := c.sessionStore.Set(credentials.QRTokenKey, sess.Token); err != nil {
		return nil, err
	}
	if err := c.sessionStore.Set(credentials.QRClientTicketKey, sess.ClientTicket); err != nil {
		return nil, err
	}
	return sess, nil
}

// CheckQRCodeStatus reads the provider-side status of a QR session.
func (c *Client) CheckQRCodeStatus(ctx context.Context, token string) (*QRStatus, error) {
	status, body, err := c.postRelayJSON(ctx, relayQRCheckPath, oauthmodel.QRCheckRequest{Token: token})
	if err != nil {
		return nil, &APIError{Kind: oauthmodel.ErrRelay, Err: err}
	}
	if !isSuccess(status) {
		return nil, classifyFailure(status, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Status: status, Body: body}
	}
	st := &QRStatus{
		Status:       oauthmodel.QRStatusType(responseField(body, "status")),
		RedirectURI:  responseField(body, "redirect_uri"),
		ClientTicket: responseField(body, "client_ticket"),
	}
	if st.Status == "" {
		return nil, &APIError{Kind: oauthmodel.ErrInvalidResponseFormat, Status: status, Message: "no status in response", Body: body}
	}
	return st, nil
}

// StartQRLogin requests a QR code and polls it in the background.
// Any QR login already running on c is stopped first. onState, when set, is
// called from the polling goroutine on every state change and must not call Stop.
func (c *Client) StartQRLogin(ctx context.Context, onState func(QRState)) (*QRLogin, error) {
	c.stopQRLogin()

	l := &QRLogin{client: c, onState: onState, done: make(chan struct{})}
	l.emit(QRStateRequesting)

	sess, err := c.GetQRCode(ctx)
	if err != nil {
		l.emit(QRStateError)
		return nil, err
	}
	l.Session = sess

	pollCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	c.mu.Lock()
	c.qr = l
	c.mu.Unlock()

	l.emit(QRStateWaiting)
	go l.poll(pollCtx)
	return l, nil
}

func (c *Client) stopQRLogin() {
	c.mu.Lock()
	l := c.qr
	c.qr = nil
	c.mu.Unlock()
	if l != nil {
		l.Stop()
	}
}

func (c *Client) clearQRState() {
	_ = c.sessionStore.Delete(credentials.QRTokenKey)
	_ = c.sessionStore.Delete(credentials.QRClientTicketKey)
}

// Stop cancels polling, waits for the poller to exit and clears the QR state.
func (l *QRLogin) Stop() {
	l.stopOnce.Do(func() {
		l.cancel()
		<-l.done
		l.client.clearQRState()
	})
}

// Done is closed once the login reaches a terminal state.
func (l *QRLogin) Done() <-chan struct{} { return l.done }

// Wait blocks until the login finishes or ctx ends.
func (l *QRLogin) Wait(ctx context.Context) (QRResult, error) {
	select {
	case <-l.done:
		return l.result, l.result.Err
	case <-ctx.Done():
		return QRResult{}, ctx.Err()
	}
}

func (l *QRLogin) emit(s QRState) {
	if l.onState != nil {
		l.onState(s)
	}
}

func (l *QRLogin) finish(r QRResult) {
	l.result = r
	l.emit(r.State)
	close(l.done)

	c := l.client
	c.mu.Lock()
	if c.qr == l {
		c.qr = nil
	}
	c.mu.Unlock()
	c.clearQRState()
}

func (l *QRLogin) poll(ctx context.Context) {
	c := l.client
	ticker := time.NewTicker(c.qrPollInterval)
	defer ticker.Stop()

	last := oauthmodel.QRStatusNew
	for {
		select {
		case <-ctx.Done():
			l.finish(QRResult{State: QRStateError, Status: last, Err: ctx.Err()})
			return
		case <-ticker.C:
		}

		st, err := c.CheckQRCodeStatus(ctx, l.Session.Token)
		if err != nil {
			if ctx.Err() != nil {
				l.finish(QRResult{State: QRStateError, Status: last, Err: ctx.Err()})
				return
			}
			if mentionsExpiry(err) {
				l.finish(QRResult{State: QRStateExpired, Status: oauthmodel.QRStatusExpired, Err: err})
				return
			}
			c.logger.Debug().Err(err).Msg("QR status check failed, will retry")
			continue
		}

		if st.Status.IsTerminal() {
			l.finish(QRResult{State: QRStateExpired, Status: st.Status})
			return
		}
		switch st.Status {
		case oauthmodel.QRStatusNew:
		case oauthmodel.QRStatusScanned:
			if last != oauthmodel.QRStatusScanned {
				l.emit(QRStateScanned)
			}
		case oauthmodel.QRStatusConfirmed:
			l.emit(QRStateConfirmed)
			l.finish(l.complete(ctx, st))
			return
		default:
			c.logger.Warn().Str("status", string(st.Status)).Msg("unknown QR status")
		}
		last = st.Status
	}
}

// complete exchanges the code carried by a confirmed status.
func (l *QRLogin) complete(ctx context.Context, st *QRStatus) QRResult {
	c := l.client
	if st.ClientTicket != "" && st.ClientTicket != l.Session.ClientTicket {
		c.logger.Warn().Msg("QR client ticket mismatch")
	}

	code, redirectURI := codeFromRedirect(st.RedirectURI)
	if code == "" {
		return QRResult{State: QRStateError, Status: st.Status, Err: &APIError{Kind: oauthmodel.ErrAuthExchange, Err: oauthmodel.ErrEmptyCode}}
	}
	if redirectURI == "" {
		redirectURI = c.cfg.RedirectURI
	}

	l.emit(QRStateExchanging)
	pair, _, err := c.exchange(ctx, code, redirectURI)
	if err != nil {
		return QRResult{State: QRStateError, Status: st.Status, Err: err}
	}
	return QRResult{State: QRStateDone, Status: st.Status, Tokens: pair}
}

// codeFromRedirect returns the authorization code in a confirmed redirect URI
// and the URI stripped of its query, which is what the exchange must echo.
func codeFromRedirect(raw string) (code, redirectURI string) {
	if u, err := url.Parse(raw); err == nil {
		if code = u.Query().Get("code"); code != "" {
			if u.Scheme != "" && u.Host != "" {
				redirectURI = u.Scheme + "://" + u.Host + u.Path
			}
			return code, redirectURI
		}
	}
	if m := codeParamPattern.FindStringSubmatch(raw); m != nil {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			return decoded, ""
		}
		return m[1], ""
	}
	return "", ""
}

func mentionsExpiry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		text := strings.ToLower(apiErr.Code + " " + apiErr.Message)
		return strings.Contains(text, "expire")
	}
	return strings.Contains(strings.ToLower(err.Error()), "expire")
}

func withClientTicket(scanURL, ticket string) string {
	if scanURL == "" {
		return ""
	}
	if strings.Contains(scanURL, clientTicketPlaceholder) {
		return strings.ReplaceAll(scanURL, clientTicketPlaceholder, ticket)
	}
	u, err := url.Parse(scanURL)
	if err != nil {
		return scanURL
	}
	q := u.Query()
	q.Set("client_ticket", ticket)
	u.RawQuery = q.Encode()
	return u.String()
}

// responseField reads a field from the top level or from under "data".
func responseField(body []byte, field string) string {
	if v := gjson.GetBytes(body, field); v.Exists() && v.String() != "" {
		return v.String()
	}
	return gjson.GetBytes(body, "data."+field).String()
}
