package jobs

import (
	"context"
	"fmt"

	"github.com/Dias221467/yumix/internal/metrics"
	"github.com/Dias221467/yumix/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

const (
	RecipeRetentionJob = "recipe-retention"
	// KeepTopViewed is how many of the most viewed external recipes survive
	// regardless of favorites.
	KeepTopViewed = 5
)

type RecipeStore interface {
	TopViewedExternalIDs(ctx context.Context, n int64) ([]primitive.ObjectID, error)
	FavoritedExternalIDs(ctx context.Context) ([]primitive.ObjectID, error)
	ExternalIDsExcept(ctx context.Context, keep []primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type HistoryStore interface {
	UnlinkRecipes(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	UnlinkDangling(ctx context.Context) (int64, error)
}

// TxRunner groups store calls into one transaction when available.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RecipeReport struct {
	Kept     int
	Deleted  int64
	Unlinked int64
	// Repaired counts references to recipes deleted by an earlier, interrupted run.
	Repaired int64
}

// RecipeRetention evicts cached external recipes nobody needs any more.
type RecipeRetention struct {
	recipes   RecipeStore
	histories HistoryStore
	tx        TxRunner
	log       *logrus.Entry
}

func NewRecipeRetention(recipes RecipeStore, histories HistoryStore, tx TxRunner) *RecipeRetention {
	return &RecipeRetention{
		recipes:   recipes,
		histories: histories,
		tx:        tx,
		log:       logger.WithComponent("jobs").WithField("job", RecipeRetentionJob),
	}
}

// KeepSet is the union of the most viewed and the favorited external recipes.
func (j *RecipeRetention) KeepSet(ctx context.Context) ([]primitive.ObjectID, error) {
	top, err := j.recipes.TopViewedExternalIDs(ctx, KeepTopViewed)
	if err != nil {
		return nil, fmt.Errorf("top viewed recipes: %w", err)
	}
	favorited, err := j.recipes.FavoritedExternalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("favorited recipes: %w", err)
	}

	seen := make(map[primitive.ObjectID]struct{}, len(top)+len(favorited))
	keep := make([]primitive.ObjectID, 0, len(top)+len(favorited))
	for _, id := range append(top, favorited...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keep = append(keep, id)
	}
	return keep, nil
}

// Sweep deletes external recipes outside the keep-set and unlinks history
// entries that pointed at them. It first repairs references left behind by a
// run that deleted recipes but failed to unlink.
func (j *RecipeRetention) Sweep(ctx context.Context) (RecipeReport, error) {
	var report RecipeReport

	repaired, repairErr := j.histories.UnlinkDangling(ctx)
	if repairErr != nil {
		repairErr = fmt.Errorf("repair history: %w", repairErr)
		j.log.WithError(repairErr).Error("Failed to repair dangling history references")
	} else if repaired > 0 {
		report.Repaired = repaired
		metrics.SweptRecords.WithLabelValues(RecipeRetentionJob, "history").Add(float64(repaired))
		j.log.WithField("repaired", repaired).Warn("Unlinked history entries of previously deleted recipes")
	}

	keep, err := j.KeepSet(ctx)
	if err != nil {
		j.log.WithError(err).Error("Failed to compute recipe keep-set")
		return report, multierr.Append(repairErr, err)
	}
	report.Kept = len(keep)

	evict, err := j.recipes.ExternalIDsExcept(ctx, keep)
	if err != nil {
		j.log.WithError(err).Error("Failed to list evictable recipes")
		return report, multierr.Append(repairErr, fmt.Errorf("evictable recipes: %w", err))
	}
	if len(evict) == 0 {
		j.log.WithField("kept", report.Kept).Info("No recipes to evict")
		return report, repairErr
	}

	err = j.tx.RunInTx(ctx, func(ctx context.Context) error {
		deleted, err := j.recipes.DeleteByIDs(ctx, evict)
		if err != nil {
			return fmt.Errorf("delete recipes: %w", err)
		}
		unlinked, err := j.histories.UnlinkRecipes(ctx, evict)
		if err != nil {
			return fmt.Errorf("unlink history: %w", err)
		}
		report.Deleted, report.Unlinked = deleted, unlinked
		return nil
	})
	if err != nil {
		j.log.WithError(err).Error("Recipe retention sweep failed")
		return report, multierr.Append(repairErr, err)
	}

	metrics.SweptRecords.WithLabelValues(RecipeRetentionJob, "recipe").Add(float64(report.Deleted))
	metrics.SweptRecords.WithLabelValues(RecipeRetentionJob, "history").Add(float64(report.Unlinked))
	j.log.WithFields(logrus.Fields{
		"kept":     report.Kept,
		"deleted":  report.Deleted,
		"unlinked": report.Unlinked,
		"repaired": report.Repaired,
	}).Info("Recipe retention sweep completed")
	return report, repairErr
}

func (j *RecipeRetention) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}
