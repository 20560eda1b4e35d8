package drive

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/trezcool/classdrive/core/student"
)

// Refresher trades a refresh token for a fresh access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (student.Tokens, error)
}

// ClientFactory turns stored credentials into a Drive client holding a non-expired token,
// refreshing and persisting the token first when needed.
type ClientFactory struct {
	store     TokenStore
	refresher Refresher
	newClient NewClientFunc
	locks     *keyedMutex
}

func NewClientFactory(store TokenStore, refresher Refresher, newClient NewClientFunc) *ClientFactory {
	return &ClientFactory{
		store:     store,
		refresher: refresher,
		newClient: newClient,
		locks:     newKeyedMutex(),
	}
}

// Client returns a Drive client for std. Refreshes are serialized per student and the
// stored row is re-read under the lock, so concurrent callers refresh at most once.
func (f *ClientFactory) Client(ctx context.Context, std student.Student) (Client, error) {
	unlock := f.locks.lock(std.ID)
	defer unlock()

	std, err := f.store.GetStudent(ctx, std.ID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return nil, opError(ErrNotAuthorized, err)
		}
		return nil, errors.Wrap(err, "reloading student")
	}
	if std.RefreshToken == "" {
		return nil, opError(ErrNotAuthorized, errors.Errorf("no refresh token stored for %s", std.Email))
	}

	tok := std.Tokens()
	if expired(tok) {
		fresh, err := f.refresher.Refresh(ctx, tok.RefreshToken)
		if err != nil {
			if errors.Is(err, ErrTokenRefresh) {
				return nil, err
			}
			return nil, opError(ErrTokenRefresh, err)
		}
		if std, err = f.store.UpdateTokens(ctx, std.ID, fresh); err != nil {
			return nil, opError(ErrTokenRefresh, errors.Wrap(err, "persisting refreshed token"))
		}
		tok = std.Tokens()
	}

	c, err := f.newClient(ctx, &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		TokenType:    "Bearer",
	})
	if err != nil {
		return nil, opError(ErrUploadTransport, err)
	}
	return c, nil
}

func expired(tok student.Tokens) bool {
	return tok.AccessToken == "" || tok.Expiry.IsZero() || !NowFunc().Before(tok.Expiry)
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (km *keyedMutex) lock(key string) (unlock func()) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = new(keyedLock)
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}
