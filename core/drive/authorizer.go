package drive

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/student"
)

// defaultTokenLifetime is assumed when the provider omits the expiry.
const defaultTokenLifetime = time.Hour

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

// TokenStore is the persisted credential state of students.
type TokenStore interface {
	GetStudent(ctx context.Context, id string) (student.Student, error)
	StoreAuthorization(ctx context.Context, id string, tok student.Tokens, at time.Time) (student.Student, error)
	UpdateTokens(ctx context.Context, id string, tok student.Tokens) (student.Student, error)
}

// Authorizer runs the per-student consent flow: consent URLs, code exchange and token refresh.
// It holds no per-student state; every call works on explicit values.
type Authorizer struct {
	oauth   oauth2.Config
	signer  stateSigner
	timeout time.Duration
	store   TokenStore
}

func NewAuthorizer(conf *core.Config, store TokenStore) *Authorizer {
	return &Authorizer{
		oauth: oauth2.Config{
			ClientID:     conf.Google.ClientID,
			ClientSecret: conf.Google.ClientSecret,
			RedirectURL:  conf.Google.StudentRedirectURL,
			Scopes:       []string{drive.DriveFileScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  conf.Google.AuthURL,
				TokenURL: conf.Google.TokenURL,
			},
		},
		signer:  newStateSigner(conf.SecretKey, conf.Google.AuthLinkTimeout),
		timeout: conf.Google.RequestTimeout,
		store:   store,
	}
}

// AuthURL returns the consent URL for a student. It always asks for offline access
// and forces the consent screen so that a refresh token is issued.
func (a *Authorizer) AuthURL(studentID string) string {
	state := a.signer.sign(studentID, NowFunc())
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback completes the consent round-trip: the state is checked and its student
// loaded before the code is exchanged, and tokens are stored only on success.
func (a *Authorizer) HandleCallback(ctx context.Context, state, code string) (student.Student, error) {
	if state == "" {
		return student.Student{}, opError(ErrUnknownStudent, errInvalidState)
	}
	id, err := a.signer.verify(state, NowFunc())
	if err != nil {
		return student.Student{}, opError(ErrUnknownStudent, err)
	}
	std, err := a.store.GetStudent(ctx, id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, opError(ErrUnknownStudent, err)
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	// superseded links cannot be replayed
	if latest := linkState(std.AuthorizationLink); latest != state {
		return student.Student{}, opError(ErrUnknownStudent, errInvalidState)
	}
	if code == "" {
		return student.Student{}, opError(ErrTokenExchange, errors.New("missing authorization code"))
	}

	tok, err := a.exchange(ctx, code)
	if err != nil {
		return student.Student{}, err
	}
	std, err = a.store.StoreAuthorization(ctx, std.ID, tok, NowFunc())
	if err != nil {
		return student.Student{}, errors.Wrap(err, "storing authorization")
	}
	return std, nil
}

func (a *Authorizer) exchange(ctx context.Context, code string) (student.Tokens, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return student.Tokens{}, opError(ErrTokenExchange, err)
	}
	return tokens(tok), nil
}

// Refresh trades a refresh token for a new access token.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (student.Tokens, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	tok, err := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return student.Tokens{}, opError(ErrTokenRefresh, err)
	}
	return tokens(tok), nil
}

func (a *Authorizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func tokens(tok *oauth2.Token) student.Tokens {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = NowFunc().Add(defaultTokenLifetime)
	}
	return student.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry.UTC(),
	}
}

func linkState(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("state")
}
