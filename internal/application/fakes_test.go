package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[domain.AccountID]domain.Account
	order    []domain.AccountID
	listErr  error
	saveErr  error
	// afterList runs once List has taken its copy, outside the lock.
	afterList func()
}

func newMemAccountRepo(accounts ...domain.Account) *memAccountRepo {
	repo := &memAccountRepo{accounts: map[domain.AccountID]domain.Account{}}
	for _, account := range accounts {
		repo.put(account)
	}
	return repo
}

func (r *memAccountRepo) put(account domain.Account) {
	if _, ok := r.accounts[account.ID]; !ok {
		r.order = append(r.order, account.ID)
	}
	r.accounts[account.ID] = account
}

func (r *memAccountRepo) GetByID(_ context.Context, id domain.AccountID) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *memAccountRepo) List(context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	if r.listErr != nil {
		r.mu.Unlock()
		return nil, r.listErr
	}
	out := make([]domain.Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}
	hook := r.afterList
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memAccountRepo) Save(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.put(account)
	return nil
}

func (r *memAccountRepo) Delete(_ context.Context, id domain.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memAccountRepo) get(id domain.AccountID) domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

type memSettingsRepo struct {
	mu       sync.Mutex
	settings domain.Settings
}

func (r *memSettingsRepo) Get(context.Context) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.settings
	out.ScheduledTasks = append([]string(nil), r.settings.ScheduledTasks...)
	return out, nil
}

func (r *memSettingsRepo) Save(_ context.Context, settings domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}

func (r *memSettingsRepo) Update(_ context.Context, mutate func(*domain.Settings) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.settings
	next.ScheduledTasks = append([]string(nil), r.settings.ScheduledTasks...)
	if err := mutate(&next); err != nil {
		return err
	}
	r.settings = next
	return nil
}

func (r *memSettingsRepo) automation() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.Automation
}

type memSecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
	putErr  error
	delErr  error
}

func newMemSecretStore() *memSecretStore {
	return &memSecretStore{secrets: map[string]string{}}
}

func (s *memSecretStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.secrets[key]
	if !ok {
		return "", domain.ErrSecretNotFound
	}
	return value, nil
}

func (s *memSecretStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.secrets[key] = value
	return nil
}

func (s *memSecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.secrets, key)
	return nil
}

// fakeSite emulates the forum pages the flows drive. A user is logged in when the
// browser carries that user's auth cookie.
type fakeSite struct {
	mu sync.Mutex

	site   Site
	tokens map[string]string
	creds  domain.Credentials
	url    string

	signed      map[string]bool
	signClicks  []string
	cooldown    map[string]time.Duration
	targets     []string
	stuck       map[string]bool
	consumed    map[string]bool
	cheatRounds int
	finalized   bool
	showCheat   bool

	navigations []string
	clicks      []string
	navErr      error
}

func newFakeSite(site Site) *fakeSite {
	return &fakeSite{
		site:     site,
		tokens:   map[string]string{},
		signed:   map[string]bool{},
		cooldown: map[string]time.Duration{},
		stuck:    map[string]bool{},
		consumed: map[string]bool{},
	}
}

func (s *fakeSite) register(username, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = username
}

func (s *fakeSite) userLocked() string {
	return s.tokens[s.creds["auth"]]
}

func (s *fakeSite) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)
	if s.navErr != nil {
		return s.navErr
	}
	s.url = url
	s.finalized = false
	s.showCheat = false
	s.consumed = map[string]bool{}
	return nil
}

func (s *fakeSite) Reload(context.Context) error {
	return nil
}

func (s *fakeSite) Text(_ context.Context, selector string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked()
	switch selector {
	case identitySelector:
		if user != "" {
			return user, nil
		}
	case alreadySignedSelector:
		if s.url == s.site.SignURL() && user != "" && s.signed[user] {
			return alreadySignedText, nil
		}
	case noticeSelector:
		switch {
		case s.url == s.site.SignURL() && user == "":
			return signLoginRequired, nil
		case s.url == s.site.WorkURL() && user == "":
			return workLoginRequired, nil
		case s.url == s.site.WorkURL() && s.showCheat:
			return workCheatText, nil
		case s.url == s.site.WorkURL() && s.cooldown[user] > 0:
			return cooldownNotice(s.cooldown[user]), nil
		}
	}
	return "", ports.ErrElementNotFound
}

func cooldownNotice(wait time.Duration) string {
	h := int(wait / time.Hour)
	m := int(wait % time.Hour / time.Minute)
	sec := int(wait % time.Minute / time.Second)
	return fmt.Sprintf("必须与上一次间隔6小时0分钟0秒才可再次进行,您需要等待%d小时%d分钟%d秒后即可进行。", h, m, sec)
}

func (s *fakeSite) Click(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked()
	s.clicks = append(s.clicks, selector)
	switch {
	case s.url == s.site.SignURL() && user != "":
		s.signClicks = append(s.signClicks, selector)
		if selector == signSubmitSelector && len(s.signClicks) >= 3 {
			s.signed[user] = true
		}
		return nil
	case s.url == s.site.WorkURL() && selector == workFinalizeSelector:
		s.finalized = true
		if s.cheatRounds > 0 {
			s.cheatRounds--
			s.showCheat = true
			return nil
		}
		s.cooldown[user] = 6 * time.Hour
		return nil
	case s.url == s.site.WorkURL() && strings.HasPrefix(selector, "#np_advid"):
		id := strings.TrimPrefix(selector, "#")
		if !s.stuck[id] {
			s.consumed[id] = true
		}
		return nil
	}
	return ports.ErrElementNotFound
}

func (s *fakeSite) IDs(_ context.Context, selector string, _ time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.userLocked()
	if selector != workTargetSelector || s.url != s.site.WorkURL() || user == "" || s.cooldown[user] > 0 || len(s.targets) == 0 {
		return nil, ports.ErrElementNotFound
	}
	return append([]string(nil), s.targets...), nil
}

func (s *fakeSite) Attribute(_ context.Context, selector, name string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSuffix(strings.TrimPrefix(selector, "#"), " a")
	if name != "style" {
		return "", ports.ErrElementNotFound
	}
	if s.consumed[id] {
		return "display:\n none;", nil
	}
	return "display: block;", nil
}

func (s *fakeSite) navigationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.navigations)
}

type fakeBrowser struct {
	site    *fakeSite
	pingErr error
	closed  atomic.Bool
}

func (b *fakeBrowser) Ping(context.Context) error {
	if b.closed.Load() {
		return errors.New("browser closed")
	}
	return b.pingErr
}

func (b *fakeBrowser) Page() ports.Page {
	return b.site
}

func (b *fakeBrowser) ClearCookies(context.Context) error {
	b.site.mu.Lock()
	defer b.site.mu.Unlock()
	b.site.creds = nil
	return nil
}

func (b *fakeBrowser) SetCookies(_ context.Context, creds domain.Credentials) error {
	b.site.mu.Lock()
	defer b.site.mu.Unlock()
	b.site.creds = creds.Clone()
	return nil
}

func (b *fakeBrowser) Cookies(context.Context) (domain.Credentials, error) {
	b.site.mu.Lock()
	defer b.site.mu.Unlock()
	return b.site.creds.Clone(), nil
}

func (b *fakeBrowser) Close() error {
	b.closed.Store(true)
	return nil
}

type fakeLauncher struct {
	mu       sync.Mutex
	site     *fakeSite
	err      error
	launched []*fakeBrowser
	opts     []ports.BrowserLaunchOptions
}

func (l *fakeLauncher) Launch(_ context.Context, opts ports.BrowserLaunchOptions) (ports.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opts = append(l.opts, opts)
	if l.err != nil {
		return nil, l.err
	}
	browser := &fakeBrowser{site: l.site}
	l.launched = append(l.launched, browser)
	return browser, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

func (l *fakeLauncher) last() *fakeBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.launched) == 0 {
		return nil
	}
	return l.launched[len(l.launched)-1]
}

func noPause(context.Context, time.Duration) error {
	return nil
}

func testEngineConfig(site Site) EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.Site = site
	cfg.ProbeWait = time.Millisecond
	cfg.StepWait = time.Millisecond
	cfg.ClickPauseMin = 0
	cfg.ClickPauseMax = 0
	return cfg
}

func storeCredentials(store *memSecretStore, id domain.AccountID, token string) string {
	ref := CredentialRef(id)
	store.secrets[ref] = fmt.Sprintf(`{"auth":%q,"saltkey":"s"}`, token)
	return ref
}
