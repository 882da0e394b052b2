package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// SubtreeTarget names the node to delete. Category and Subcategory narrow
// it; a subcategory without a category is invalid.
type SubtreeTarget struct {
	Company     string
	Category    string
	Subcategory string
}

// Level reports which container the target addresses
func (t SubtreeTarget) Level() string {
	switch {
	case t.Subcategory != "":
		return "subcategory"
	case t.Category != "":
		return "category"
	default:
		return "company"
	}
}

func (t SubtreeTarget) normalized() SubtreeTarget {
	return SubtreeTarget{
		Company:     strings.TrimSpace(t.Company),
		Category:    strings.TrimSpace(t.Category),
		Subcategory: strings.TrimSpace(t.Subcategory),
	}
}

// SubtreeDeleter removes a container and everything beneath it
type SubtreeDeleter struct {
	store       ports.DocumentStore
	layout      valueobjects.CatalogLayout
	maxBatchOps int
	logger      *zap.Logger
}

// NewSubtreeDeleter creates a new subtree deleter
func NewSubtreeDeleter(store ports.DocumentStore, layout valueobjects.CatalogLayout, maxBatchOps int, logger *zap.Logger) *SubtreeDeleter {
	return &SubtreeDeleter{
		store:       store,
		layout:      layout,
		maxBatchOps: maxBatchOps,
		logger:      logger,
	}
}

// DeleteSubtree enumerates the whole subtree first and only then deletes,
// leaves before subcategories before categories before the target itself.
// A failed enumeration deletes nothing.
func (d *SubtreeDeleter) DeleteSubtree(ctx context.Context, target SubtreeTarget) (int, error) {
	target = target.normalized()
	if target.Company == "" {
		return 0, errors.NewValidationError("company is required")
	}
	if target.Subcategory != "" && target.Category == "" {
		return 0, errors.NewValidationError("category is required when subcategory is given")
	}

	plan, err := d.enumerate(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate %s subtree: %w", target.Level(), err)
	}
	if plan.empty() {
		exists, err := d.exists(ctx, plan.root)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, errors.NewNotFoundError(target.Level()).WithDetail("path", plan.root.String())
		}
	}

	paths := plan.ordered()
	deleted, err := deleteInChunks(ctx, d.store, paths, d.maxBatchOps)
	if err != nil {
		d.logger.Error("Subtree delete stopped",
			zap.String("root", plan.root.String()),
			zap.Int("deleted", deleted),
			zap.Int("planned", len(paths)),
			zap.Error(err),
		)
		return deleted, err
	}

	d.logger.Info("Subtree deleted",
		zap.String("root", plan.root.String()),
		zap.Int("products", len(plan.leaves)),
		zap.Int("documents", deleted),
	)
	return deleted, nil
}

type deletePlan struct {
	root          valueobjects.DocPath
	leaves        []valueobjects.DocPath
	subcategories []valueobjects.DocPath
	categories    []valueobjects.DocPath
}

func (p deletePlan) empty() bool {
	return len(p.leaves) == 0 && len(p.subcategories) == 0 && len(p.categories) == 0
}

// ordered lists every path children-first, ending with the root
func (p deletePlan) ordered() []valueobjects.DocPath {
	out := make([]valueobjects.DocPath, 0, len(p.leaves)+len(p.subcategories)+len(p.categories)+1)
	out = append(out, p.leaves...)
	out = append(out, p.subcategories...)
	out = append(out, p.categories...)
	return append(out, p.root)
}

func (d *SubtreeDeleter) enumerate(ctx context.Context, target SubtreeTarget) (deletePlan, error) {
	var plan deletePlan

	switch {
	case target.Subcategory != "":
		seg := valueobjects.PathSegments{Company: target.Company, Category: target.Category, Subcategory: target.Subcategory}
		plan.root = d.layout.SubcategoryDoc(seg)
		return plan, d.collectLeaves(ctx, &plan, seg)

	case target.Category != "":
		plan.root = d.layout.CategoryDoc(target.Company, target.Category)
		return plan, d.collectCategory(ctx, &plan, target.Company, target.Category)

	default:
		plan.root = d.layout.CompanyDoc(target.Company)
		categories, err := d.store.ListChildren(ctx, d.layout.CategoriesOf(target.Company))
		if err != nil {
			return plan, err
		}
		for _, cat := range categories {
			plan.categories = append(plan.categories, cat.Path)
			if err := d.collectCategory(ctx, &plan, target.Company, cat.ID()); err != nil {
				return plan, err
			}
		}
		return plan, nil
	}
}

func (d *SubtreeDeleter) collectCategory(ctx context.Context, plan *deletePlan, company, category string) error {
	subcategories, err := d.store.ListChildren(ctx, d.layout.SubcategoriesOf(company, category))
	if err != nil {
		return err
	}
	for _, sub := range subcategories {
		plan.subcategories = append(plan.subcategories, sub.Path)
		seg := valueobjects.PathSegments{Company: company, Category: category, Subcategory: sub.ID()}
		if err := d.collectLeaves(ctx, plan, seg); err != nil {
			return err
		}
	}
	return nil
}

func (d *SubtreeDeleter) collectLeaves(ctx context.Context, plan *deletePlan, seg valueobjects.PathSegments) error {
	docs, err := d.store.ListChildren(ctx, d.layout.LeafCollection(seg))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		plan.leaves = append(plan.leaves, doc.Path)
	}
	return nil
}

func (d *SubtreeDeleter) exists(ctx context.Context, path valueobjects.DocPath) (bool, error) {
	_, err := d.store.Get(ctx, path)
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
