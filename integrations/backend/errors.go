package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bookify/services/reservation"
)

// decodeRejection turns a non-2xx backend response into a typed error.
// 404s and codes ending in NOT_FOUND become NotFoundError, other coded
// rejections become PolicyError, and anything unparseable is a transport
// failure.
func decodeRejection(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope rejectionEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		rej := envelope.Error
		if resp.StatusCode == http.StatusNotFound || strings.HasSuffix(rej.Code, "NOT_FOUND") {
			return &reservation.NotFoundError{Code: rej.Code, Message: rej.Message}
		}
		return &reservation.PolicyError{Code: rej.Code, Message: rej.Message}
	}

	return &reservation.TransportError{
		Message: "",
		Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
