package service

import (
	"context"
	"strings"
	"testing"

	"vaultbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	post := env.post(t, alice, "reported")
	comment, err := env.comment.Create(ctx, alice, post.ID, "spam")
	require.NoError(t, err)

	tests := []struct {
		name  string
		ident models.Identity
		in    ReportInput
		code  string
	}{
		{"post by user", alice, ReportInput{TargetType: "post", TargetID: post.ID, Detail: "off topic"}, ""},
		{"anonymous comment", models.Identity{}, ReportInput{TargetType: "comment", TargetID: comment.ID, Detail: "spam"}, ""},
		{"user", alice, ReportInput{TargetType: "user", TargetID: alice.ID, Detail: "impersonation"}, ""},
		{"unknown target type", alice, ReportInput{TargetType: "vault", TargetID: 1, Detail: "x"}, models.CodeValidation},
		{"missing target", alice, ReportInput{TargetType: "post", TargetID: post.ID + 5, Detail: "x"}, models.CodeNotFound},
		{"empty detail", alice, ReportInput{TargetType: "post", TargetID: post.ID}, models.CodeValidation},
		{"long detail", alice, ReportInput{TargetType: "post", TargetID: post.ID, Detail: strings.Repeat("d", 1001)}, models.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := env.reportSvc.Create(ctx, tt.ident, tt.in)
			if tt.code != "" {
				requireCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, report.ID)
			if tt.ident.IsZero() {
				assert.Nil(t, report.UserID)
			} else {
				require.NotNil(t, report.UserID)
				assert.Equal(t, tt.ident.ID, *report.UserID)
			}
		})
	}
}

func TestReportService_AnonymousDisabled(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	svc := NewReportService(env.reports, false)

	_, err := svc.Create(context.Background(), models.Identity{}, ReportInput{TargetType: "user", TargetID: alice.ID, Detail: "x"})
	requireCode(t, err, models.CodeUnauthenticated)
}
