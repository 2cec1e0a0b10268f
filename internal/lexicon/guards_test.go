package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeEmail(t *testing.T) {
	assert.True(t, LooksLikeEmail("jean.dupont@gmail.com"))
	assert.True(t, LooksLikeEmail("Contact: jean@entreprise.fr"))
	assert.False(t, LooksLikeEmail("Capgemini Engineering"))
}

func TestLooksLikePhone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"international", "+33 6 12 34 56 78", true},
		{"national", "06 12 34 56 78", true},
		{"us dotted", "555.123.4567", true},
		{"year range is not a phone", "2020 - 2023", false},
		{"plain text", "Développeur chez Capgemini", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikePhone(tt.text))
		})
	}
}

func TestLooksLikeURLOrDomain(t *testing.T) {
	assert.True(t, LooksLikeURLOrDomain("https://github.com/user"))
	assert.True(t, LooksLikeURLOrDomain("www.entreprise.fr"))
	assert.True(t, LooksLikeURLOrDomain("linkedin.com"))
	assert.False(t, LooksLikeURLOrDomain("Capgemini"))
}

func TestHasTLDSuffix(t *testing.T) {
	assert.True(t, HasTLDSuffix("acme.com"))
	assert.True(t, HasTLDSuffix("startup.io"))
	assert.False(t, HasTLDSuffix("acme.co.uk"))
	assert.False(t, HasTLDSuffix("Netflix Inc"))
	assert.False(t, HasTLDSuffix("Capgemini"))
}

func TestLooksLikeEmailLocalPart(t *testing.T) {
	assert.True(t, LooksLikeEmailLocalPart("jean.dupont"))
	assert.True(t, LooksLikeEmailLocalPart("jdupont42"))
	assert.True(t, LooksLikeEmailLocalPart("jean_dupont"))
	assert.False(t, LooksLikeEmailLocalPart("ab"))
	assert.False(t, LooksLikeEmailLocalPart("Capgemini Engineering"))
}

func TestLooksLikeLanguageCertificate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exam name", "TOEFL 95", true},
		{"cefr level with niveau", "Anglais niveau B2", true},
		{"bare cefr token", "Espagnol B1", true},
		{"b2b is business not cefr", "Responsable commercial B2B", false},
		{"plain title", "Développeur fullstack", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeLanguageCertificate(tt.text))
		})
	}
}

func TestIsValidOrgValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"real employer", "Capgemini", true},
		{"multi word employer", "Netflix Inc", true},
		{"email", "jean@acme.com", false},
		{"domain", "acme.io", false},
		{"email local part", "jean.dupont", false},
		{"too short", "ab", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidOrgValue(tt.value))
		})
	}
}

func TestNormalizeCertification(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"canonical", "Certification TOEIC 2021", "toeic"},
		{"typo corrected", "Tofl score 95", "toefl"},
		{"aws", "AWS Certified Solutions Architect", "aws certified"},
		{"no cert", "Développeur chez Capgemini", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCertification(tt.text))
		})
	}
}

func TestIsContactLine(t *testing.T) {
	assert.True(t, IsContactLine("jean.dupont@gmail.com | +33 6 12 34 56 78"))
	assert.True(t, IsContactLine("www.monsite.fr"))
	assert.False(t, IsContactLine("Développeur chez Capgemini"))
	assert.False(t, IsContactLine("2020 - 2023"))
}
