package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/mailmirror/internal/core/domain"
)

// wrapError maps a Gmail API error onto the domain error taxonomy so
// callers can classify with errors.Is instead of inspecting HTTP codes.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Transport failures are worth retrying.
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, gerr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, gerr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, gerr.Message)
	case http.StatusGone:
		return fmt.Errorf("%w: %s", domain.ErrCursorExpired, gerr.Message)
	default:
		if gerr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", domain.ErrRemoteUnavailable, gerr.Message)
		}
		return err
	}
}

// wrapHistoryError is wrapError with the Gmail quirk that history.list
// returns 404 when the start history ID has aged out.
func wrapHistoryError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: history id no longer valid", domain.ErrCursorExpired)
	}
	return wrapError(err)
}
