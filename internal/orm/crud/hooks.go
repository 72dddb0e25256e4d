package crud

import (
	"context"
	"fmt"
)

// Lifecycle hooks a resource may implement. They run inside the write
// transaction, which ctx carries; an error aborts the write.
type (
	BeforeCreateHook interface{ BeforeCreate(ctx context.Context) error }
	BeforeUpdateHook interface{ BeforeUpdate(ctx context.Context) error }
	BeforeSaveHook   interface{ BeforeSave(ctx context.Context) error }
	AfterSaveHook    interface{ AfterSave(ctx context.Context) error }
	BeforeDeleteHook interface{ BeforeDelete(ctx context.Context) error }
	AfterDeleteHook  interface{ AfterDelete(ctx context.Context) error }
)

// HookType names a lifecycle moment
type HookType string

const (
	BeforeCreate HookType = "before_create"
	BeforeUpdate HookType = "before_update"
	BeforeSave   HookType = "before_save"
	AfterSave    HookType = "after_save"
	BeforeDelete HookType = "before_delete"
	AfterDelete  HookType = "after_delete"
)

// runHooks calls the hooks object implements, in order
func runHooks(ctx context.Context, object interface{}, types ...HookType) error {
	for _, t := range types {
		var err error
		switch t {
		case BeforeCreate:
			if h, ok := object.(BeforeCreateHook); ok {
				err = h.BeforeCreate(ctx)
			}
		case BeforeUpdate:
			if h, ok := object.(BeforeUpdateHook); ok {
				err = h.BeforeUpdate(ctx)
			}
		case BeforeSave:
			if h, ok := object.(BeforeSaveHook); ok {
				err = h.BeforeSave(ctx)
			}
		case AfterSave:
			if h, ok := object.(AfterSaveHook); ok {
				err = h.AfterSave(ctx)
			}
		case BeforeDelete:
			if h, ok := object.(BeforeDeleteHook); ok {
				err = h.BeforeDelete(ctx)
			}
		case AfterDelete:
			if h, ok := object.(AfterDeleteHook); ok {
				err = h.AfterDelete(ctx)
			}
		}
		if err != nil {
			return fmt.Errorf("%s hook failed: %w", t, err)
		}
	}
	return nil
}
