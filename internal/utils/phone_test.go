package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		country string
		want    string
		wantErr bool
	}{
		{name: "french national", raw: "0612345678", country: "FR", want: "+33612345678"},
		{name: "french with spaces", raw: "06 12 34 56 78", country: "FR", want: "+33612345678"},
		{name: "french with dots", raw: "06.12.34.56.78", country: "FR", want: "+33612345678"},
		{name: "french e164", raw: "+33712345678", country: "FR", want: "+33712345678"},
		{name: "french 00 prefix", raw: "0033612345678", country: "FR", want: "+33612345678"},
		{name: "lowercase country", raw: "0612345678", country: "fr", want: "+33612345678"},
		{name: "french landline rejected", raw: "0112345678", country: "FR", wantErr: true},
		{name: "french too short", raw: "061234567", country: "FR", wantErr: true},
		{name: "belgian mobile", raw: "0470123456", country: "BE", want: "+32470123456"},
		{name: "swiss mobile", raw: "0791234567", country: "CH", want: "+41791234567"},
		{name: "spanish mobile", raw: "612345678", country: "ES", wantErr: true},
		{name: "spanish e164", raw: "+34612345678", country: "ES", want: "+34612345678"},
		{name: "unknown country keeps e164", raw: "+4915112345678", country: "DE", want: "+4915112345678"},
		{name: "unknown country national rejected", raw: "015112345678", country: "DE", wantErr: true},
		{name: "empty", raw: "", country: "FR", wantErr: true},
		{name: "whitespace only", raw: "   ", country: "FR", wantErr: true},
		{name: "letters", raw: "not-a-phone", country: "FR", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, tt.country)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
