package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	appreceivable "github.com/finvera/receivables/internal/application/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HTTPUserDirectory resolves user IDs against the directory service over
// HTTP. Any transport failure, non-OK status or nil-UUID profile surfaces as
// shared.ErrCommunicationFailure, which callers treat as terminal.
type HTTPUserDirectory struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPUserDirectory creates a new directory client
func NewHTTPUserDirectory(cfg config.DirectoryConfig, logger *zap.Logger) *HTTPUserDirectory {
	return &HTTPUserDirectory{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("directory"),
	}
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Lookup resolves a user ID to a profile
func (d *HTTPUserDirectory) Lookup(ctx context.Context, userID uuid.UUID) (*appreceivable.UserProfile, error) {
	url := fmt.Sprintf("%s/users/%s", d.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("directory request failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, shared.ErrCommunicationFailure
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("directory returned unexpected status",
			zap.String("user_id", userID.String()),
			zap.Int("status", resp.StatusCode))
		return nil, shared.ErrCommunicationFailure
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		d.logger.Warn("directory response malformed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, shared.ErrCommunicationFailure
	}

	// The directory reports an unknown user with the nil-UUID sentinel
	if user.ID == uuid.Nil {
		d.logger.Warn("directory could not resolve user",
			zap.String("user_id", userID.String()))
		return nil, shared.ErrCommunicationFailure
	}

	return &appreceivable.UserProfile{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}, nil
}
