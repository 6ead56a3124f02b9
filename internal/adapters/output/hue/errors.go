package hue

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/amimof/huego"

	"hue-bus-bridge/internal/ports"
)

// apiErrorUnauthorized is the Hue error type for an unknown username.
const apiErrorUnauthorized = 1

// classify maps huego and transport errors onto the port sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *huego.APIError
	if errors.As(err, &apiErr) && apiErr.Type == apiErrorUnauthorized {
		return fmt.Errorf("%w: %s", ports.ErrUnauthorized, apiErr.Description)
	}
	if strings.Contains(strings.ToLower(err.Error()), "unauthorized user") {
		return fmt.Errorf("%w: %w", ports.ErrUnauthorized, err)
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: %w", ports.ErrConnectionReset, err)
	}
	return err
}
