package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clientcare/crm/internal/clock"
	leaddomain "github.com/clientcare/crm/internal/lead/domain"
	"github.com/clientcare/crm/internal/note/domain"
	"github.com/clientcare/crm/internal/note/repository"
	"github.com/google/uuid"
)

var (
	orgA   = snowflake.ID(1001)
	orgB   = snowflake.ID(2002)
	author = uuid.MustParse("11111111-2222-3333-4444-555555555555")
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&leaddomain.Lead{}, &domain.Note{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	return NewService(repository.NewRepository(conn), node, clk), conn, clk
}

func seedLead(t *testing.T, conn *gorm.DB, id, orgID snowflake.ID) {
	t.Helper()
	require.NoError(t, conn.Create(&leaddomain.Lead{
		ID:    id,
		OrgID: orgID,
		Name:  "Asha",
		Phone: "919900112233",
	}).Error)
}

func TestCreateNoteRequiresOwnedParent(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ctx := context.Background()
	seedLead(t, conn, 42, orgA)

	note, err := svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 42, Content: "  called, call back tomorrow  "})
	require.NoError(t, err)
	assert.Equal(t, "called, call back tomorrow", note.Content)
	assert.Equal(t, author, note.CreatedBy)
	assert.Equal(t, clk.Now(), note.CreatedAt)

	// Parent in another tenant looks exactly like a missing parent.
	_, err = svc.Create(ctx, orgB, author, domain.CreateRequest{LeadID: 42, Content: "cross-tenant"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 999, Content: "orphan"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 42, Content: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
}

func TestListByLeadScoped(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ctx := context.Background()
	seedLead(t, conn, 42, orgA)

	for _, content := range []string{"first", "second"} {
		clk.Advance(time.Minute)
		_, err := svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 42, Content: content})
		require.NoError(t, err)
	}

	notes, err := svc.ListByLead(ctx, orgA, 42)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Content)

	_, err = svc.ListByLead(ctx, orgB, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateNoteScoped(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ctx := context.Background()
	seedLead(t, conn, 42, orgA)

	note, err := svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 42, Content: "draft"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := svc.Update(ctx, orgA, note.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.WithinDuration(t, clk.Now(), updated.UpdatedAt, time.Second)

	_, err = svc.Update(ctx, orgB, note.ID, "sneaky")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, orgA, note.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
}

func TestDeleteNoteScoped(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	seedLead(t, conn, 42, orgA)

	note, err := svc.Create(ctx, orgA, author, domain.CreateRequest{LeadID: 42, Content: "temp"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, orgB, note.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, orgA, note.ID))
	assert.ErrorIs(t, svc.Delete(ctx, orgA, note.ID), domain.ErrNotFound)
}
