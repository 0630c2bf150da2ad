package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campusmart/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// CaptchaVerifier checks a client-side CAPTCHA response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RecaptchaVerifier verifies tokens against Google's siteverify endpoint.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	timeout   time.Duration
}

// NewRecaptchaVerifier creates a RecaptchaVerifier.
func NewRecaptchaVerifier(secret, verifyURL string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		timeout:   5 * time.Second,
	}
}

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implements CaptchaVerifier.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.New(apperrors.Validation, "Please complete the CAPTCHA")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.Internal, "CAPTCHA verification error", err)
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("secret", v.secret)
	args.Set("response", token)
	if remoteIP != "" {
		args.Set("remoteip", remoteIP)
	}

	var resp recaptchaResponse
	code, _, errs := fiber.Post(v.verifyURL).Form(args).Timeout(v.timeout).Struct(&resp)
	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.Internal, "CAPTCHA verification error", errs[0])
	}
	if code != fiber.StatusOK {
		return apperrors.Wrap(apperrors.Internal, "CAPTCHA verification error",
			fmt.Errorf("siteverify returned status %d", code))
	}
	if !resp.Success {
		return apperrors.New(apperrors.Validation, "CAPTCHA verification failed")
	}
	return nil
}

// PresenceCaptchaVerifier only requires a non-empty token. It stands in for
// reCAPTCHA when no secret is configured.
type PresenceCaptchaVerifier struct{}

// Verify implements CaptchaVerifier.
func (PresenceCaptchaVerifier) Verify(_ context.Context, token, _ string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.New(apperrors.Validation, "Please complete the CAPTCHA")
	}
	return nil
}
