// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type pageRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Size   int    `json:"size" validate:"min=1,max=100"`
	Hidden string `json:"-" validate:"omitempty,max=1"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid page request",
			input: &pageRequest{UserID: "42", Size: 30},
		},
		{
			name:      "missing user id uses json name",
			input:     &pageRequest{Size: 30},
			wantErr:   true,
			wantField: "user_id",
			wantMsg:   "user_id is required",
		},
		{
			name:      "size above max",
			input:     &pageRequest{UserID: "42", Size: 500},
			wantErr:   true,
			wantField: "size",
			wantMsg:   "size must be at most 100",
		},
		{
			name:  "valid movie filters",
			input: &models.Filters{MediaType: models.MediaTypeMovie, Genres: []int{28}, Region: "US"},
		},
		{
			name:      "unknown media type",
			input:     &models.Filters{MediaType: "music"},
			wantErr:   true,
			wantField: "media_type",
			wantMsg:   "media_type must be one of: movie, show",
		},
		{
			name:      "region must be two letters",
			input:     &models.Filters{MediaType: models.MediaTypeShow, Region: "USA"},
			wantErr:   true,
			wantField: "region",
			wantMsg:   "region must be exactly 2 characters",
		},
		{
			name:      "rating above ten",
			input:     &models.Filters{MediaType: models.MediaTypeMovie, MinRating: 11},
			wantErr:   true,
			wantField: "min_rating",
			wantMsg:   "min_rating must be less than or equal to 10",
		},
		{
			name:      "max year before min year",
			input:     &models.Filters{MediaType: models.MediaTypeMovie, MinYear: 2010, MaxYear: 2000},
			wantErr:   true,
			wantField: "max_year",
			wantMsg:   "max_year must not be before min_year 2010",
		},
		{
			name:  "open year range",
			input: &models.Filters{MediaType: models.MediaTypeMovie, MaxYear: 1990},
		},
		{
			name:      "blocklist entry without id",
			input:     &models.BlocklistEntry{MediaType: models.MediaTypeMovie},
			wantErr:   true,
			wantField: "catalog_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_ToAPIError(t *testing.T) {
	t.Parallel()

	t.Run("single error", func(t *testing.T) {
		t.Parallel()
		err := ValidateStruct(&pageRequest{Size: 30})
		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "user_id" {
			t.Errorf("Details = %v", apiErr.Details)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		t.Parallel()
		err := ValidateStruct(&pageRequest{Size: 0})
		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details[fields] = %v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, "user_id:") || !strings.Contains(apiErr.Message, "size:") {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}
