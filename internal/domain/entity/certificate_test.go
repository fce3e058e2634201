package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tu-usuario/obra-pro/internal/domain/entity"
)

func TestCertificate_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{entity.CertificateStatusDraft, entity.CertificateStatusIssued, true},
		{entity.CertificateStatusIssued, entity.CertificateStatusApproved, true},
		{entity.CertificateStatusApproved, entity.CertificateStatusPaid, true},
		{entity.CertificateStatusDraft, entity.CertificateStatusApproved, false},
		{entity.CertificateStatusIssued, entity.CertificateStatusDraft, false},
		{entity.CertificateStatusPaid, entity.CertificateStatusApproved, false},
		{entity.CertificateStatusPaid, entity.CertificateStatusPaid, false},
	}
	for _, tc := range cases {
		c := &entity.Certificate{Status: tc.from}
		assert.Equal(t, tc.want, c.CanTransitionTo(tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, entity.ValidStatus("draft"))
	assert.True(t, entity.ValidStatus("paid"))
	assert.False(t, entity.ValidStatus("cancelled"))
	assert.False(t, entity.ValidStatus(""))
}
