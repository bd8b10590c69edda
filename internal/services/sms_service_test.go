package services

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"baraholka/internal/config"
	"baraholka/internal/models"
)

// --- фейки ---

type fakeVerifRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.SMSVerification // одна строка на номер
	nextID int64
}

func newFakeVerifRepo() *fakeVerifRepo {
	return &fakeVerifRepo{rows: map[string]*models.SMSVerification{}}
}

func (f *fakeVerifRepo) Upsert(phone, code string, createdAt, expiresAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[phone]; ok {
		row.Code = code
		row.CreatedAt = createdAt
		row.ExpiresAt = expiresAt
		row.Consumed = false
		return row.ID, nil
	}
	f.nextID++
	f.rows[phone] = &models.SMSVerification{
		ID:        f.nextID,
		Phone:     phone,
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	return f.nextID, nil
}

func (f *fakeVerifRepo) GetCurrent(phone, code string) (*models.SMSVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[phone]
	if !ok || row.Code != code {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeVerifRepo) MarkConsumed(id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			if row.Consumed {
				return false, nil
			}
			row.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

// код действующей записи — чтобы тест узнал, что "пришло" в SMS
func (f *fakeVerifRepo) codeFor(phone string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[phone]; ok {
		return row.Code
	}
	return ""
}

func (f *fakeVerifRepo) expireNow(phone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[phone]; ok {
		row.ExpiresAt = time.Now().Add(-time.Second)
	}
}

type fakeLastCodeRepo struct {
	mu      sync.Mutex
	upserts []models.UserLastCode
}

func (f *fakeLastCodeRepo) Upsert(userID int64, phone, code string, issuedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, models.UserLastCode{UserID: userID, Phone: phone, Code: code, IssuedAt: issuedAt})
	return nil
}

func (f *fakeLastCodeRepo) GetByPhone(phone string) (*models.UserLastCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.upserts) - 1; i >= 0; i-- {
		if f.upserts[i].Phone == phone {
			cp := f.upserts[i]
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeUserRepo struct {
	mu         sync.Mutex
	byName     map[string]*models.User
	nextID     int64
	createHook func(f *fakeUserRepo) error // вызывается перед insert
	lookupErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byName: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createHook != nil {
		if err := f.createHook(f); err != nil {
			return err
		}
	}
	if _, ok := f.byName[u.Username]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byName[u.Username] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := f.byName[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	sends   []string // "phone|message"
	sendErr error
}

func (f *fakeGateway) Send(phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, phone+"|"+message)
	return nil
}

func (f *fakeGateway) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type fixture struct {
	verif    *fakeVerifRepo
	lastCode *fakeLastCodeRepo
	users    *fakeUserRepo
	gateway  *fakeGateway
	svc      SMSService
}

func newFixture(cfg config.VerificationConfig) *fixture {
	if cfg.CodeTTLMinutes == 0 {
		cfg.CodeTTLMinutes = 5
	}
	if cfg.CodeLength == 0 {
		cfg.CodeLength = 4
	}
	f := &fixture{
		verif:    newFakeVerifRepo(),
		lastCode: &fakeLastCodeRepo{},
		users:    newFakeUserRepo(),
		gateway:  &fakeGateway{},
	}
	f.svc = NewSMSService(f.verif, f.lastCode, f.users, f.gateway, nil, cfg)
	return f
}

// --- тесты ---

func TestRequestCode(t *testing.T) {
	t.Run("valid phone sends code and stores attempt", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})

		phone, err := f.svc.RequestCode("79991234567")
		if err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if phone != "79991234567" {
			t.Errorf("normalized phone = %q, want 79991234567", phone)
		}

		code := f.verif.codeFor("79991234567")
		if len(code) != 4 {
			t.Fatalf("stored code = %q, want 4 digits", code)
		}
		if f.gateway.count() != 1 {
			t.Fatalf("gateway sends = %d, want 1", f.gateway.count())
		}
		msg := f.gateway.sends[0]
		if !strings.Contains(msg, code) {
			t.Errorf("sms %q does not contain code %q", msg, code)
		}
		if !strings.Contains(msg, "Ваш код подтверждения") {
			t.Errorf("sms %q missing template text", msg)
		}
	})

	t.Run("phone is normalized before use", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})

		phone, err := f.svc.RequestCode("+7 (999) 123-45-67")
		if err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if phone != "79991234567" {
			t.Errorf("normalized phone = %q", phone)
		}
		if f.verif.codeFor("79991234567") == "" {
			t.Error("attempt not stored under normalized phone")
		}
	})

	t.Run("invalid phone rejected before side effects", func(t *testing.T) {
		for _, raw := range []string{"", "1234", "89991234567", "7999123456", "799912345678"} {
			f := newFixture(config.VerificationConfig{})
			if _, err := f.svc.RequestCode(raw); !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("RequestCode(%q) err = %v, want ErrInvalidPhone", raw, err)
			}
			if f.gateway.count() != 0 {
				t.Errorf("RequestCode(%q) hit the gateway", raw)
			}
			if len(f.verif.rows) != 0 {
				t.Errorf("RequestCode(%q) stored an attempt", raw)
			}
		}
	})

	t.Run("delivery failure keeps the attempt", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		f.gateway.sendErr = errors.New("smsc error 6: timeout")

		_, err := f.svc.RequestCode("79991234567")
		if !errors.Is(err, ErrDeliveryFailed) {
			t.Fatalf("err = %v, want ErrDeliveryFailed", err)
		}
		if f.verif.codeFor("79991234567") == "" {
			t.Error("attempt was not persisted on delivery failure")
		}
	})

	t.Run("last code saved for existing account only", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		f.users.byName["79991234567"] = &models.User{ID: 42, Username: "79991234567"}

		if _, err := f.svc.RequestCode("79991234567"); err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if len(f.lastCode.upserts) != 1 || f.lastCode.upserts[0].UserID != 42 {
			t.Fatalf("last code upserts = %+v, want one row for user 42", f.lastCode.upserts)
		}

		if _, err := f.svc.RequestCode("79990000001"); err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if len(f.lastCode.upserts) != 1 {
			t.Errorf("last code written for phone without account")
		}
	})

	t.Run("account lookup storage error propagates", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		f.users.lookupErr = errors.New("connection refused")

		if _, err := f.svc.RequestCode("79991234567"); err == nil {
			t.Fatal("expected storage error, got nil")
		}
		if f.gateway.count() != 0 {
			t.Error("gateway called despite storage error")
		}
	})
}

func TestVerifyCode(t *testing.T) {
	request := func(t *testing.T, f *fixture, phone string) string {
		t.Helper()
		if _, err := f.svc.RequestCode(phone); err != nil {
			t.Fatalf("RequestCode(%s): %v", phone, err)
		}
		return f.verif.codeFor(phone)
	}

	t.Run("issued code verifies exactly once", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		code := request(t, f, "79991234567")

		phone, err := f.svc.VerifyCode("79991234567", code)
		if err != nil {
			t.Fatalf("first verify: %v", err)
		}
		if phone != "79991234567" {
			t.Errorf("phone = %q", phone)
		}

		if _, err := f.svc.VerifyCode("79991234567", code); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("replay err = %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("no attempt means invalid code, not unknown phone", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		if _, err := f.svc.VerifyCode("79991234567", "0000"); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("err = %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("malformed phone maps to invalid code", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		if _, err := f.svc.VerifyCode("banana", "0000"); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("err = %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("wrong code is invalid", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		code := request(t, f, "79991234567")

		wrong := "0000"
		if wrong == code {
			wrong = "0001"
		}
		if _, err := f.svc.VerifyCode("79991234567", wrong); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("err = %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("reissue supersedes the previous code", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		first := request(t, f, "79991234567")
		second := request(t, f, "79991234567")
		if first == second {
			t.Skip("codes collided, supersede is unobservable this run")
		}

		if _, err := f.svc.VerifyCode("79991234567", first); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("old code err = %v, want ErrCodeInvalid", err)
		}
		if _, err := f.svc.VerifyCode("79991234567", second); err != nil {
			t.Errorf("new code err = %v, want nil", err)
		}
	})

	t.Run("expired code is a distinct error", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		code := request(t, f, "79991234567")
		f.verif.expireNow("79991234567")

		if _, err := f.svc.VerifyCode("79991234567", code); !errors.Is(err, ErrCodeExpired) {
			t.Errorf("err = %v, want ErrCodeExpired", err)
		}
	})

	t.Run("concurrent verifies: exactly one wins", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})
		code := request(t, f, "79991234567")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.svc.VerifyCode("79991234567", code)
			}(i)
		}
		wg.Wait()

		var okCnt, invalidCnt int
		for _, err := range errs {
			switch {
			case err == nil:
				okCnt++
			case errors.Is(err, ErrCodeInvalid):
				invalidCnt++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if okCnt != 1 || invalidCnt != 1 {
			t.Errorf("ok=%d invalid=%d, want exactly one winner", okCnt, invalidCnt)
		}
	})
}

func TestTestMode(t *testing.T) {
	testCfg := config.VerificationConfig{
		TestMode: config.TestModeConfig{Enabled: true, Phone: "79999999999", Code: "1234"},
	}

	t.Run("request for test phone skips the gateway", func(t *testing.T) {
		f := newFixture(testCfg)

		if _, err := f.svc.RequestCode("79999999999"); err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if f.gateway.count() != 0 {
			t.Error("gateway was called for the test phone")
		}
		if got := f.verif.codeFor("79999999999"); got != "1234" {
			t.Errorf("stored code = %q, want fixed 1234", got)
		}
	})

	t.Run("test code always verifies and leaves an audit row", func(t *testing.T) {
		f := newFixture(testCfg)

		// без предварительного RequestCode
		phone, err := f.svc.VerifyCode("79999999999", "1234")
		if err != nil {
			t.Fatalf("VerifyCode: %v", err)
		}
		if phone != "79999999999" {
			t.Errorf("phone = %q", phone)
		}
		row := f.verif.rows["79999999999"]
		if row == nil || !row.Consumed {
			t.Errorf("audit row = %+v, want consumed attempt", row)
		}

		// и повторно тоже проходит
		if _, err := f.svc.VerifyCode("79999999999", "1234"); err != nil {
			t.Errorf("repeat VerifyCode: %v", err)
		}
	})

	t.Run("wrong code on test phone still fails", func(t *testing.T) {
		f := newFixture(testCfg)
		if _, err := f.svc.VerifyCode("79999999999", "0000"); !errors.Is(err, ErrCodeInvalid) {
			t.Errorf("err = %v, want ErrCodeInvalid", err)
		}
	})

	t.Run("disabled test mode treats the phone normally", func(t *testing.T) {
		f := newFixture(config.VerificationConfig{})

		if _, err := f.svc.RequestCode("79999999999"); err != nil {
			t.Fatalf("RequestCode: %v", err)
		}
		if f.gateway.count() != 1 {
			t.Error("gateway not called: bypass leaked into disabled mode")
		}
		if _, err := f.svc.VerifyCode("79999999999", "1234"); !errors.Is(err, ErrCodeInvalid) {
			// шанс коллизии со сгенерированным кодом 1/10000 — допустимо
			if f.verif.codeFor("79999999999") != "1234" {
				t.Errorf("fixed code accepted with test mode off: %v", err)
			}
		}
	})
}
