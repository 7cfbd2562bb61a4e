package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"

	"github.com/cenkalti/backoff/v4"
)

// ConsumerRole is the role of customers created through the wizard.
const ConsumerRole = "consumidor"

// ProfileClient reads and creates customer records on the bakery backend.
type ProfileClient struct {
	bakeryClient
	retries  uint64
	interval time.Duration
}

// NewProfileClient creates a profile client for the bakery backend at baseURL.
func NewProfileClient(baseURL string, hc *http.Client, log *logger.Logger) *ProfileClient {
	return &ProfileClient{
		bakeryClient: newBakeryClient("profiles", baseURL, hc, log),
		retries:      4,
		interval:     500 * time.Millisecond,
	}
}

type userDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Nombre       string `json:"nombre"`
	Apellido     string `json:"apellido"`
	Tipo         string `json:"tipo"`
	Telefono     string `json:"telefono,omitempty"`
	Direccion    string `json:"direccion,omitempty"`
	Departamento string `json:"departamento,omitempty"`
	Ciudad       string `json:"ciudad,omitempty"`
}

func (u userDTO) identity() *domain.Identity {
	return &domain.Identity{
		ID:        u.ID,
		FirstName: u.Nombre,
		LastName:  u.Apellido,
		Email:     u.Email,
		Role:      u.Tipo,
		Shipping: domain.ShippingProfile{
			Phone:      u.Telefono,
			Address:    u.Direccion,
			Department: u.Departamento,
			City:       u.Ciudad,
		},
	}
}

// Profile fetches the customer record of userID. A record without a role is
// still being created on the backend, so the read is retried a few times
// before giving up.
func (c *ProfileClient) Profile(ctx context.Context, userID string) (*domain.Identity, error) {
	var found *domain.Identity
	op := func() error {
		var dto userDTO
		err := c.do(ctx, http.MethodGet, "/usuarios/"+url.PathEscape(userID), nil, &dto)
		if err != nil {
			var re *domain.RemoteError
			if errors.As(err, &re) && re.Status >= 400 && re.Status < 500 && re.Status != http.StatusNotFound {
				return backoff.Permanent(err)
			}
			return err
		}
		if dto.Tipo == "" {
			return &domain.RemoteError{Service: c.service, Status: http.StatusNotFound, Message: "profile not ready"}
		}
		found = dto.identity()
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.interval), c.retries), ctx)
	notify := func(err error, wait time.Duration) {
		c.log.Debug("profile %s not available yet, retrying in %s: %v", userID, wait, err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return found, nil
}

// CreateProfile stores the customer record of a freshly signed-up account.
func (c *ProfileClient) CreateProfile(ctx context.Context, userID string, p domain.RegisterProfile) error {
	first, last := p.SplitName()
	return c.do(ctx, http.MethodPost, "/usuarios", userDTO{
		ID:           userID,
		Email:        p.Email,
		Nombre:       first,
		Apellido:     last,
		Tipo:         ConsumerRole,
		Telefono:     p.Phone,
		Direccion:    p.Address,
		Departamento: p.Department,
		Ciudad:       p.City,
	}, nil)
}
