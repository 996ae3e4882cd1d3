package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/graphmark/graphmark/internal/accm"
)

// Provider resolves the compiled policy governing a user's access to a
// database.
type Provider interface {
	PolicyFor(ctx context.Context, username, database string) (*accm.Policy, error)
}

// CachingProvider compiles a user's policy set once per session and caches
// it for the session lifetime. The attribute query and compilation run
// lazily on first access, never under a storage lock; after that the
// cached set is immutable and concurrent lookups share it.
type CachingProvider struct {
	authority Authority
	compiler  *Compiler
	databases []string

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	once sync.Once
	set  *accm.PolicySet
	err  error
}

// NewCachingProvider builds a provider over the given authority and
// compiler. knownDatabases fixes the set of databases policies are
// compiled for.
func NewCachingProvider(authority Authority, compiler *Compiler, knownDatabases []string) *CachingProvider {
	return &CachingProvider{
		authority: authority,
		compiler:  compiler,
		databases: knownDatabases,
		sessions:  make(map[string]*session),
	}
}

// PolicyFor implements Provider. The first call for a user fetches
// attributes and compiles; later calls reuse the cached set. A failed
// compile is cached too: the session stays denied until invalidated.
func (p *CachingProvider) PolicyFor(ctx context.Context, username, database string) (*accm.Policy, error) {
	set, err := p.policySet(ctx, username)
	if err != nil {
		return nil, err
	}
	return set.Resolve(database)
}

// PolicySetFor returns the user's full compiled policy set.
func (p *CachingProvider) PolicySetFor(ctx context.Context, username string) (*accm.PolicySet, error) {
	return p.policySet(ctx, username)
}

// Invalidate drops a user's cached session, forcing a fresh compile on the
// next access. Called when the identity provider reports attribute changes
// or on logout.
func (p *CachingProvider) Invalidate(username string) {
	p.mu.Lock()
	delete(p.sessions, username)
	p.mu.Unlock()
}

func (p *CachingProvider) policySet(ctx context.Context, username string) (*accm.PolicySet, error) {
	p.mu.Lock()
	sess, ok := p.sessions[username]
	if !ok {
		sess = &session{}
		p.sessions[username] = sess
	}
	p.mu.Unlock()

	sess.once.Do(func() {
		attrs, err := p.authority.Fetch(ctx, username)
		if err != nil {
			sess.err = fmt.Errorf("fetching attributes for %q: %w", username, err)
			return
		}
		policies, err := p.compiler.Compile(attrs, p.databases)
		if err != nil {
			sess.err = fmt.Errorf("compiling policy for %q: %w", username, err)
			return
		}
		sess.set = accm.NewPolicySet(policies)
	})
	return sess.set, sess.err
}
