package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/identity/outbound/cache"
	"github.com/musicflowhq/musicflow/internal/pkg/clock"
	"github.com/musicflowhq/musicflow/internal/pkg/flowsession"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/goroutine"
	"github.com/musicflowhq/musicflow/internal/pkg/hash"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/musicflowhq/musicflow/internal/pkg/jwt"
	"github.com/musicflowhq/musicflow/internal/pkg/ratelimit"
	"github.com/musicflowhq/musicflow/internal/pkg/storage"
	"github.com/musicflowhq/musicflow/internal/pkg/uid"
	"github.com/musicflowhq/musicflow/internal/pkg/validator"
	"github.com/musicflowhq/musicflow/internal/shared/event"
	"github.com/redis/go-redis/v9"
)

// errBoom stands in for any infrastructure failure injected by a fake.
var errBoom = errors.New("boom")

// stubConfig is a map-backed config for tests; unset keys fall back to the
// usecase defaults.
type stubConfig struct {
	strings map[string]string
	seconds map[string]time.Duration
	ints    map[string]int64
}

func (c stubConfig) Close() error                       { return nil }
func (c stubConfig) GetSecond(k string) time.Duration   { return c.seconds[k] }
func (c stubConfig) GetMinute(string) time.Duration     { return 0 }
func (c stubConfig) GetHour(string) time.Duration       { return 0 }
func (c stubConfig) GetDay(string) time.Duration        { return 0 }
func (c stubConfig) GetInt(string) int                  { return 0 }
func (c stubConfig) GetInt32(string) int32              { return 0 }
func (c stubConfig) GetInt64(k string) int64            { return c.ints[k] }
func (c stubConfig) GetUint(string) uint                { return 0 }
func (c stubConfig) GetUint16(string) uint16            { return 0 }
func (c stubConfig) GetUint32(string) uint32            { return 0 }
func (c stubConfig) GetUint64(string) uint64            { return 0 }
func (c stubConfig) GetFloat32(string) float32          { return 0 }
func (c stubConfig) GetFloat64(string) float64          { return 0 }
func (c stubConfig) GetBool(string) bool                { return false }
func (c stubConfig) GetString(k string) string          { return c.strings[k] }
func (c stubConfig) GetBinary(string) []byte            { return nil }
func (c stubConfig) GetArray(string) []string           { return nil }
func (c stubConfig) GetMap(string) map[string]string    { return nil }

type fakeDB struct {
	users      map[int64]*entity.User
	loginInfos map[string]*entity.UserLoginInfo
	profiles   map[int64]*entity.Profile
	dashboards map[int64]*entity.Dashboard

	registrations []entity.NewUser
	passwords     map[int64]string
	avatarURLs    map[int64]string

	conflictEmails map[string]bool
	failPwUpdate   bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:          map[int64]*entity.User{},
		loginInfos:     map[string]*entity.UserLoginInfo{},
		profiles:       map[int64]*entity.Profile{},
		dashboards:     map[int64]*entity.Dashboard{},
		passwords:      map[int64]string{},
		avatarURLs:     map[int64]string{},
		conflictEmails: map[string]bool{},
	}
}

func (f *fakeDB) addUser(u entity.User, passwordHash string) {
	cp := u
	f.users[u.ID] = &cp
	f.loginInfos[u.Email] = &entity.UserLoginInfo{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Status:   u.Status,
		Password: passwordHash,
	}
	f.profiles[u.ID] = &entity.Profile{UserID: u.ID}
	f.dashboards[u.ID] = &entity.Dashboard{UserID: u.ID}
}

func (f *fakeDB) GetUserLoginInfo(_ context.Context, email string) (*entity.UserLoginInfo, error) {
	if li, ok := f.loginInfos[email]; ok {
		return li, nil
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetProfile(_ context.Context, userID int64) (*entity.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetDashboard(_ context.Context, userID int64) (*entity.Dashboard, error) {
	if d, ok := f.dashboards[userID]; ok {
		return d, nil
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) NewRegistration(_ context.Context, user entity.NewUser, hash string) error {
	if f.conflictEmails[user.Email] {
		return goerror.ErrConflict
	}
	f.registrations = append(f.registrations, user)
	f.addUser(entity.User{ID: user.ID, Email: user.Email, FullName: user.FullName, Status: user.Status}, hash)
	return nil
}

func (f *fakeDB) UpdateUserPassword(_ context.Context, userID int64, hash string) error {
	if f.failPwUpdate {
		return errBoom
	}
	f.passwords[userID] = hash
	return nil
}

func (f *fakeDB) UpdateProfile(_ context.Context, in entity.UpdateProfile) error {
	p, ok := f.profiles[in.UserID]
	if !ok {
		return goerror.ErrNotFound
	}
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.Phone = in.Phone
	p.Profession = in.Profession
	p.Genre = in.Genre
	p.Instrument = in.Instrument
	p.SkillLevel = in.SkillLevel
	p.Bio = in.Bio
	return nil
}

func (f *fakeDB) UpdateProfileAvatar(_ context.Context, userID int64, avatarURL string) error {
	f.avatarURLs[userID] = avatarURL
	return nil
}

func (f *fakeDB) UpdateDashboard(_ context.Context, in entity.UpdateDashboard) error {
	d, ok := f.dashboards[in.UserID]
	if !ok {
		return goerror.ErrNotFound
	}
	d.LastOpenedPage = in.LastOpenedPage
	d.CompletedLessons = in.CompletedLessons
	d.Notes = in.Notes
	d.GuitarType = in.GuitarType
	d.PageTheme = in.PageTheme
	return nil
}

type fakeMail struct {
	links []string
	codes []string

	failLink bool
	failCode bool
}

func (f *fakeMail) SendResetLink(_ context.Context, _, link string, _ int) error {
	if f.failLink {
		return errBoom
	}
	f.links = append(f.links, link)
	return nil
}

func (f *fakeMail) SendVerificationCode(_ context.Context, _, code string, _ int) error {
	if f.failCode {
		return errBoom
	}
	f.codes = append(f.codes, code)
	return nil
}

type fakeMessaging struct {
	published []event.UserRegistrationMessage
	fail      bool
}

func (f *fakeMessaging) PublishUserRegistration(_ context.Context, msg event.UserRegistrationMessage) error {
	if f.fail {
		return errBoom
	}
	f.published = append(f.published, msg)
	return nil
}

type fakeStorage struct {
	puts []string // bucket/key
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, _ storage.PutOptions) (storage.ObjectInfo, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return storage.ObjectInfo{}, err
	}
	f.puts = append(f.puts, bucket+"/"+key)
	return storage.ObjectInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeStorage) GetObject(context.Context, string, string, storage.GetOptions) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, goerror.ErrNotFound
}

func (f *fakeStorage) StatObject(context.Context, string, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, goerror.ErrNotFound
}

func (f *fakeStorage) DeleteObject(context.Context, string, string) error { return nil }

func (f *fakeStorage) ListObjects(context.Context, string, string, storage.ListOptions) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStorage) PresignGet(context.Context, string, string, time.Duration) (string, error) {
	return "", nil
}

func (f *fakeStorage) PresignPut(context.Context, string, string, storage.PutOptions, time.Duration) (string, error) {
	return "", nil
}

type harness struct {
	uc       *Usecase
	db       *fakeDB
	mail     *fakeMail
	msg      *fakeMessaging
	store    *fakeStorage
	mr       *miniredis.Miniredis
	cache    *cache.Cache
	sessions *flowsession.Store
	hmac     hash.Hash
	bcrypt   hash.Hash
	jwt      jwt.JWT
}

const testRateLimit = 3

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	snow, err := uid.NewSnowflake()
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	oid, err := uid.NewObjectIDGenerator()
	if err != nil {
		t.Fatalf("objectid: %v", err)
	}

	clk := clock.New()
	uuid := uid.NewUUID()

	// HS512 wants a key at least as long as the hash output
	secret := []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:     secret,
		Issuer:     "test",
		Audiences:  []string{"test"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       uuid,
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	rememberSigner, err := jwt.NewHS512(jwt.Config{
		Secret:     secret,
		Issuer:     "test",
		Audiences:  []string{"test"},
		TTLMinutes: 24 * 60 * time.Minute,
		Clock:      clk,
		UUID:       uuid,
	})
	if err != nil {
		t.Fatalf("remember jwt: %v", err)
	}

	h := &harness{
		db:       newFakeDB(),
		mail:     &fakeMail{},
		msg:      &fakeMessaging{},
		store:    &fakeStorage{},
		mr:       mr,
		cache:    cache.NewCache(client, instrument.NewNoop()),
		sessions: flowsession.NewStore(client, 10*time.Minute),
		hmac:     hash.NewHMACSHA256("test-hmac-secret"),
		bcrypt:   hash.NewBcrypt(4, "test-pepper"),
		jwt:      signer,
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoCache:     h.cache,
		RepoMessaging: h.msg,
		RepoMail:      h.mail,
		Sessions:      h.sessions,
		Limiter:       ratelimit.NewFixedWindow(client, "rl:", testRateLimit, time.Minute),
		Validator:     v,
		Config: stubConfig{
			strings: map[string]string{
				"modules.identity.reset.link_base_url": "https://app.musicflow.test",
				"modules.identity.avatar_bucket":       "avatars",
				"modules.identity.avatar_base_url":     "https://cdn.musicflow.test",
			},
			seconds: map[string]time.Duration{},
			ints: map[string]int64{
				"modules.identity.avatar_max_size_bytes": 1 << 20,
			},
		},
		Storage:     h.store,
		HMAC:        h.hmac,
		Bcrypt:      h.bcrypt,
		UID:         snow,
		UUID:        uuid,
		OID:         oid,
		Clock:       clk,
		JWT:         signer,
		JWTRemember: rememberSigner,
		Instrument:  instrument.NewNoop(),
		Goroutine:   goroutine.NewManager(2),
	})

	return h
}

// seedUser registers an active account directly in the fake DB.
func (h *harness) seedUser(t *testing.T, id int64, email, password string) entity.User {
	t.Helper()

	pwHash, err := h.bcrypt.Hash(password)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	u := entity.User{ID: id, Email: email, FullName: "Pat Moore", Status: entity.UserStatusActive}
	h.db.addUser(u, string(pwHash))
	return u
}

func wantErrCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	gerr := asGoError(t, err)
	if gerr.Code() != code {
		t.Fatalf("error code: got %v, want %v (err: %v)", gerr.Code(), code, err)
	}
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return gerr
}
