package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/ports"
	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/events"
)

// ProductCommandHandlers handles interactive product writes
type ProductCommandHandlers struct {
	products  *services.ProductService
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductCommandHandlers creates the product command handlers
func NewProductCommandHandlers(
	products *services.ProductService,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ProductCommandHandlers {
	return &ProductCommandHandlers{
		products:  products,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Register binds every product command to the bus
func (h *ProductCommandHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.AddProductCommand{}, bus.Typed(h.HandleAdd)},
		{commands.UpdateProductCommand{}, bus.Typed(h.HandleUpdate)},
		{commands.DeleteProductCommand{}, bus.Typed(h.HandleDelete)},
		{commands.DeleteAllProductsCommand{}, bus.Typed(h.HandleDeleteAll)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleAdd executes the add product command
func (h *ProductCommandHandlers) HandleAdd(ctx context.Context, cmd commands.AddProductCommand) (entities.Product, error) {
	product, err := h.products.Add(ctx, cmd.Draft)
	if err != nil {
		return entities.Product{}, err
	}

	publish(ctx, h.publisher, h.logger,
		events.NewProductCreated(product.ID, product.Path, product.Name, product.Price, h.now()))
	return product, nil
}

// HandleUpdate executes the update product command
func (h *ProductCommandHandlers) HandleUpdate(ctx context.Context, cmd commands.UpdateProductCommand) (entities.Product, error) {
	product, oldPath, err := h.products.UpdateWithOrigin(ctx, cmd.Ref, cmd.Patch)
	if err != nil {
		return entities.Product{}, err
	}

	publish(ctx, h.publisher, h.logger,
		events.NewProductUpdated(product.ID, product.Path, oldPath, h.now()))
	return product, nil
}

// HandleDelete executes the delete product command
func (h *ProductCommandHandlers) HandleDelete(ctx context.Context, cmd commands.DeleteProductCommand) (commands.DeleteProductResult, error) {
	product, err := h.products.Delete(ctx, cmd.Ref)
	if err != nil {
		return commands.DeleteProductResult{}, err
	}

	publish(ctx, h.publisher, h.logger, events.NewProductDeleted(product.Path, 1, h.now()))
	return commands.DeleteProductResult{Deleted: 1, Product: product}, nil
}

// HandleDeleteAll executes the delete all products command
func (h *ProductCommandHandlers) HandleDeleteAll(ctx context.Context, _ commands.DeleteAllProductsCommand) (commands.DeleteResult, error) {
	deleted, err := h.products.DeleteAll(ctx)
	if err != nil {
		return commands.DeleteResult{Deleted: deleted}, err
	}

	if deleted > 0 {
		publish(ctx, h.publisher, h.logger, events.NewProductDeleted("", deleted, h.now()))
	}
	return commands.DeleteResult{Deleted: deleted}, nil
}

// publish sends an event after a successful write. A failed publish is
// logged and never fails the command.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, event events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish domain event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
