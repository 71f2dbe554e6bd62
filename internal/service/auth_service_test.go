package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	db       *memDB
	sessions *fakeSessions
	mail     *fakeNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		EmailTokenExpiry: 24 * time.Hour,
		ResetTokenExpiry: 30 * time.Minute,
		BcryptCost:       bcrypt.MinCost,
	}
	f := &authFixture{db: newMemDB(), sessions: newFakeSessions(), mail: &fakeNotifier{}}
	f.svc = NewAuthService(cfg, fakeUsers{f.db}, f.sessions, f.mail, zerolog.New(io.Discard))
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *authFixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Username:        username,
		Email:           username + "@Example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func (f *authFixture) lastMail(t *testing.T, kind string) sentMail {
	t.Helper()
	for i := len(f.mail.sent) - 1; i >= 0; i-- {
		if f.mail.sent[i].kind == kind {
			return f.mail.sent[i]
		}
	}
	t.Fatalf("no %s mail sent", kind)
	return sentMail{}
}

func TestRegisterConfirmLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "minh")

	if u.EmailConfirmed || u.Role != model.UserRoleUser || u.Email != "minh@example.com" {
		t.Fatalf("unexpected new user %+v", u)
	}
	if u.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}

	login := &model.LoginRequest{Username: "minh", Password: "secret123"}
	if _, err := f.svc.Login(ctx, login); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("login before confirm: got %v", err)
	}

	mail := f.lastMail(t, "confirm")
	if mail.to != "minh@example.com" {
		t.Fatalf("confirmation sent to %s", mail.to)
	}
	if err := f.svc.ConfirmEmail(ctx, mail.token); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}
	if err := f.svc.ConfirmEmail(ctx, mail.token); err != nil {
		t.Fatalf("second ConfirmEmail: %v", err)
	}

	resp, err := f.svc.Login(ctx, login)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "minh" || claims.Role != model.UserRoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if err := f.svc.ValidateSession(ctx, claims); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if !resp.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("expiresAt = %v", resp.ExpiresAt)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "lan")
	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Username: "LAN", Email: "other@example.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("got %v", err)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.fail = true
	f.register(t, "hoa")
	if len(f.db.users) != 1 {
		t.Fatal("user not stored")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "tuan")
	for _, req := range []*model.LoginRequest{
		{Username: "tuan", Password: "nope"},
		{Username: "ghost", Password: "secret123"},
	} {
		if _, err := f.svc.Login(context.Background(), req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: got %v", req.Username, err)
		}
	}
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "an")
	_ = f.svc.ConfirmEmail(ctx, f.lastMail(t, "confirm").token)

	login := &model.LoginRequest{Username: "an", Password: "secret123"}
	first, _ := f.svc.Login(ctx, login)
	second, err := f.svc.Login(ctx, login)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	c1, _ := f.svc.ValidateToken(first.Token)
	c2, _ := f.svc.ValidateToken(second.Token)
	if err := f.svc.ValidateSession(ctx, c1); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("old session still valid: %v", err)
	}
	if err := f.svc.ValidateSession(ctx, c2); err != nil {
		t.Fatalf("new session invalid: %v", err)
	}

	uid, _ := c2.UserID()
	if err := f.svc.Logout(ctx, uid); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := f.svc.ValidateSession(ctx, c2); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("session survived logout: %v", err)
	}
}

func TestTokenPurposeIsEnforced(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "binh")
	confirm := f.lastMail(t, "confirm").token

	if _, err := f.svc.ValidateToken(confirm); err == nil {
		t.Fatal("confirmation token accepted as access token")
	}
	err := f.svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token: confirm, NewPassword: "another1", ConfirmPassword: "another1",
	})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("confirmation token accepted for reset: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "cuong")
	token, _, err := f.svc.IssueAccessToken(u)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	f.svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if _, err := f.svc.ValidateToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestResetPasswordSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "dung")
	_ = f.svc.ConfirmEmail(ctx, f.lastMail(t, "confirm").token)

	if err := f.svc.ForgotPassword(ctx, "DUNG@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	reset := &model.ResetPasswordRequest{Token: f.lastMail(t, "reset").token, NewPassword: "newpass1", ConfirmPassword: "newpass1"}
	if err := f.svc.ResetPassword(ctx, reset); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, reset); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset token reused: %v", err)
	}

	if _, err := f.svc.Login(ctx, &model.LoginRequest{Username: "dung", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, err := f.svc.Login(ctx, &model.LoginRequest{Username: "dung", Password: "newpass1"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("got %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatalf("mail sent for unknown address: %+v", f.mail.sent)
	}
}
