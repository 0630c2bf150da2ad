package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"campusmart/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// CASIdentity is the identity asserted by a validated CAS ticket.
type CASIdentity struct {
	Email     string
	FirstName string
	LastName  string
}

// TicketValidator validates institutional single sign-on tickets.
type TicketValidator interface {
	Validate(ctx context.Context, ticket string) (*CASIdentity, error)
}

// CASClient validates tickets with a CAS 2.0 serviceValidate endpoint.
type CASClient struct {
	validateURL string
	serviceURL  string
	timeout     time.Duration
}

// NewCASClient creates a CASClient. serviceURL must be the service the
// ticket was issued for.
func NewCASClient(validateURL, serviceURL string) *CASClient {
	return &CASClient{
		validateURL: validateURL,
		serviceURL:  serviceURL,
		timeout:     10 * time.Second,
	}
}

type casServiceResponse struct {
	XMLName xml.Name `xml:"serviceResponse"`
	Success *struct {
		User       string `xml:"user"`
		Attributes struct {
			FirstName string `xml:"firstname"`
			LastName  string `xml:"lastname"`
		} `xml:"attributes"`
	} `xml:"authenticationSuccess"`
	Failure *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"authenticationFailure"`
}

// Validate implements TicketValidator.
func (c *CASClient) Validate(ctx context.Context, ticket string) (*CASIdentity, error) {
	if strings.TrimSpace(ticket) == "" {
		return nil, apperrors.New(apperrors.Validation, "CAS ticket is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "CAS validation error", err)
	}

	u, err := url.Parse(c.validateURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "CAS validation error", err)
	}
	q := u.Query()
	q.Set("ticket", ticket)
	q.Set("service", c.serviceURL)
	u.RawQuery = q.Encode()

	code, body, errs := fiber.Get(u.String()).Timeout(c.timeout).Bytes()
	if len(errs) > 0 {
		return nil, apperrors.Wrap(apperrors.Internal, "CAS validation error", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, apperrors.Wrap(apperrors.Internal, "CAS validation error",
			fmt.Errorf("serviceValidate returned status %d", code))
	}
	return parseCASResponse(body)
}

func parseCASResponse(body []byte) (*CASIdentity, error) {
	var resp casServiceResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, "CAS validation error", err)
	}
	if resp.Failure != nil {
		return nil, apperrors.Newf(apperrors.Unauthorized, "CAS rejected ticket: %s %s",
			resp.Failure.Code, strings.TrimSpace(resp.Failure.Message))
	}
	if resp.Success == nil || strings.TrimSpace(resp.Success.User) == "" {
		return nil, apperrors.New(apperrors.Unauthorized, "CAS response carried no user")
	}
	return &CASIdentity{
		Email:     strings.ToLower(strings.TrimSpace(resp.Success.User)),
		FirstName: strings.TrimSpace(resp.Success.Attributes.FirstName),
		LastName:  strings.TrimSpace(resp.Success.Attributes.LastName),
	}, nil
}
