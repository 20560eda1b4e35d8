package googlesvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/teacher"
)

var errUnverifiedEmail = errors.New("google account email is not verified")

// LoginFlow signs teachers in with their Google account.
type LoginFlow struct {
	oauth   oauth2.Config
	domain  string
	timeout time.Duration
	opts    []option.ClientOption
}

// NewLoginFlow returns a LoginFlow. opts are passed to the userinfo API client.
func NewLoginFlow(conf *core.Config, opts ...option.ClientOption) *LoginFlow {
	return &LoginFlow{
		oauth: oauth2.Config{
			ClientID:     conf.Google.ClientID,
			ClientSecret: conf.Google.ClientSecret,
			RedirectURL:  conf.Google.TeacherRedirectURL,
			Scopes:       []string{"openid", oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  conf.Google.AuthURL,
				TokenURL: conf.Google.TokenURL,
			},
		},
		domain:  conf.InstitutionalDomain,
		timeout: conf.Google.RequestTimeout,
		opts:    opts,
	}
}

// AuthURL returns the Google sign-in URL. The `hd` hint narrows the account chooser
// to the institutional domain; it is not a check.
func (f *LoginFlow) AuthURL(state string) string {
	return f.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("hd", f.domain))
}

// Profile exchanges the sign-in code and returns the identity of the signed-in account.
func (f *LoginFlow) Profile(ctx context.Context, code string) (teacher.GoogleProfile, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return teacher.GoogleProfile{}, errors.Wrap(err, "exchanging code")
	}

	opts := append([]option.ClientOption{option.WithTokenSource(f.oauth.TokenSource(ctx, tok))}, f.opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return teacher.GoogleProfile{}, errors.Wrap(err, "creating userinfo service")
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return teacher.GoogleProfile{}, errors.Wrap(err, "fetching userinfo")
	}
	if info.VerifiedEmail != nil && !*info.VerifiedEmail {
		return teacher.GoogleProfile{}, errUnverifiedEmail
	}

	return teacher.GoogleProfile{
		GoogleID: info.Id,
		Name:     info.Name,
		Email:    info.Email,
		Picture:  info.Picture,
	}, nil
}
