package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/application/ports/mocks"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/infrastructure/persistence/memory"
	pkgerrors "salesadmin/pkg/errors"
)

func seedCatalog(t *testing.T) *memory.DocumentStore {
	t.Helper()
	store := memory.NewDocumentStore()
	seedLeaf(t, store, "LG", "TV", "OLED", "p1", 50000)
	seedLeaf(t, store, "LG", "TV", "OLED", "p2", 60000)
	seedLeaf(t, store, "LG", "TV", "LED", "p3", 20000)
	seedLeaf(t, store, "LG", "AC", "Split", "p4", 35000)
	seedLeaf(t, store, "Sony", "TV", "OLED", "p5", 90000)
	return store
}

func TestSubtreeDeleter_Levels(t *testing.T) {
	tests := []struct {
		name          string
		target        SubtreeTarget
		deleted       int
		leavesLeft    int
		categories    int
		subcategories int
	}{
		{
			name:          "company cascades through every level",
			target:        SubtreeTarget{Company: "LG"},
			deleted:       4 + 3 + 2 + 1,
			leavesLeft:    1,
			categories:    1,
			subcategories: 1,
		},
		{
			name:          "category",
			target:        SubtreeTarget{Company: "LG", Category: "TV"},
			deleted:       3 + 2 + 1,
			leavesLeft:    2,
			categories:    2,
			subcategories: 2,
		},
		{
			name:          "subcategory",
			target:        SubtreeTarget{Company: "LG", Category: "TV", Subcategory: "OLED"},
			deleted:       2 + 1,
			leavesLeft:    3,
			categories:    3,
			subcategories: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := seedCatalog(t)
			commitsBefore := store.CommitCount()
			deleter := NewSubtreeDeleter(store, testLayout, 450, zap.NewNop())

			// Act
			deleted, err := deleter.DeleteSubtree(context.Background(), tt.target)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.deleted, deleted)
			assert.Len(t, leaves(t, store), tt.leavesLeft)
			assert.Len(t, scan(t, store, valueobjects.CollectionCategories), tt.categories)
			assert.Len(t, scan(t, store, valueobjects.CollectionSubcategories), tt.subcategories)
			assert.Equal(t, 1, store.CommitCount()-commitsBefore, "whole subtree deleted in one batch")
		})
	}
}

func TestSubtreeDeleter_ChunksLargeSubtrees(t *testing.T) {
	store := seedCatalog(t)
	commitsBefore := store.CommitCount()
	deleter := NewSubtreeDeleter(store, testLayout, 4, zap.NewNop())

	deleted, err := deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "LG"})

	require.NoError(t, err)
	assert.Equal(t, 10, deleted)
	assert.Equal(t, 3, store.CommitCount()-commitsBefore)
	_, err = store.Get(context.Background(), testLayout.CompanyDoc("LG"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSubtreeDeleter_EnumerationFailureDeletesNothing(t *testing.T) {
	// Arrange
	store := new(mocks.MockDocumentStore)
	lg := testLayout.CompanyDoc("LG")
	store.On("ListChildren", mock.Anything, testLayout.CategoriesOf("LG")).
		Return([]ports.Document{{Path: lg.Collection(valueobjects.CollectionCategories).Doc("TV")}}, nil)
	store.On("ListChildren", mock.Anything, testLayout.SubcategoriesOf("LG", "TV")).
		Return(nil, pkgerrors.NewStoreUnavailableError("list", errors.New("timeout")))
	deleter := NewSubtreeDeleter(store, testLayout, 450, zap.NewNop())

	// Act
	deleted, err := deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "LG"})

	// Assert
	assert.True(t, pkgerrors.IsUnavailable(err))
	assert.Zero(t, deleted)
	store.AssertNotCalled(t, "NewBatch")
}

func TestSubtreeDeleter_Validation(t *testing.T) {
	deleter := NewSubtreeDeleter(memory.NewDocumentStore(), testLayout, 450, zap.NewNop())

	_, err := deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "  "})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "LG", Subcategory: "OLED"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSubtreeDeleter_MissingTarget(t *testing.T) {
	store := seedCatalog(t)
	deleter := NewSubtreeDeleter(store, testLayout, 450, zap.NewNop())

	_, err := deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "Samsung"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSubtreeDeleter_EmptyContainerIsDeleted(t *testing.T) {
	store := memory.NewDocumentStore()
	require.NoError(t, store.SetMerge(context.Background(), testLayout.CompanyDoc("Empty"), map[string]interface{}{"name": "Empty"}))
	deleter := NewSubtreeDeleter(store, testLayout, 450, zap.NewNop())

	deleted, err := deleter.DeleteSubtree(context.Background(), SubtreeTarget{Company: "Empty"})

	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, store.Len())
}
