package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConversionMessage is one delivery received from the work queue.
type ConversionMessage struct {
	ID           string
	ReceiptToken string
	Body         []byte
}

// ConversionRequest is the validated payload of a ConversionMessage.
type ConversionRequest struct {
	UserID               string  `json:"userId"          validate:"required"`
	FileID               string  `json:"fileId"          validate:"required"`
	FileName             string  `json:"fileName"        validate:"required"`
	SourceStorageKey     string  `json:"fileStorageKey"  validate:"required"`
	FrameIntervalSeconds float64 `json:"screenshotsTime" validate:"gte=0.001,lte=86400"`
}

// FrameInterval is FrameIntervalSeconds as a duration. Parse bounds it to [1ms, 24h].
func (r ConversionRequest) FrameInterval() time.Duration {
	return time.Duration(r.FrameIntervalSeconds * float64(time.Second))
}

// ValidationError marks a message body that cannot be trusted enough to act on.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid conversion message: " + e.Reason
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Parse decodes and validates the message body. The returned error is always a *ValidationError.
func (m ConversionMessage) Parse() (ConversionRequest, error) {
	var req ConversionRequest
	if len(m.Body) == 0 {
		return ConversionRequest{}, &ValidationError{Reason: "empty body"}
	}
	if err := json.Unmarshal(m.Body, &req); err != nil {
		return ConversionRequest{}, &ValidationError{Reason: "decode body: " + err.Error()}
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.FileID = strings.TrimSpace(req.FileID)
	req.FileName = strings.TrimSpace(req.FileName)
	req.SourceStorageKey = strings.TrimSpace(req.SourceStorageKey)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return ConversionRequest{}, &ValidationError{Reason: strings.Join(fields, ", ")}
		}
		return ConversionRequest{}, &ValidationError{Reason: err.Error()}
	}
	return req, nil
}
