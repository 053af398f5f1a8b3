package handler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/food-shelter/internal/adapter/metrics"
	"github.com/rl1809/food-shelter/internal/core/service"
)

const (
	InventoryServiceName = "foodshelter.InventoryService"
	// OwnerMetadataKey is the gRPC counterpart of OwnerHeader.
	OwnerMetadataKey = "x-owner-id"
)

type CreateStockItemRequest struct {
	RequestID      string          `json:"requestId,omitempty"`
	ItemName       string          `json:"itemName"`
	Category       string          `json:"category"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	MinimumStock   int             `json:"minimumStock"`
	ExpirationDate string          `json:"expirationDate,omitempty"`
}

type StockItemReply struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
	Item    *StockItemJSON `json:"item,omitempty"`
}

type DeleteStockItemRequest struct {
	ID string `json:"id"`
}

type DeleteStockItemReply struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message,omitempty"`
	BlockingMealPlans []string `json:"blockingMealPlans,omitempty"`
}

type PatchStockItemRequest struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type ListStockItemsRequest struct{}

type StockItemsReply struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Items   []StockItemJSON `json:"items"`
}

// InventoryServer is the server side of foodshelter.InventoryService.
type InventoryServer interface {
	CreateStockItem(ctx context.Context, req *CreateStockItemRequest) (*StockItemReply, error)
	DeleteStockItem(ctx context.Context, req *DeleteStockItemRequest) (*DeleteStockItemReply, error)
	PatchStockItem(ctx context.Context, req *PatchStockItemRequest) (*StockItemReply, error)
	LowStock(ctx context.Context, req *ListStockItemsRequest) (*StockItemsReply, error)
	ExpiringSoon(ctx context.Context, req *ListStockItemsRequest) (*StockItemsReply, error)
}

var inventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateStockItem", InventoryServer.CreateStockItem),
		unaryMethod("DeleteStockItem", InventoryServer.DeleteStockItem),
		unaryMethod("PatchStockItem", InventoryServer.PatchStockItem),
		unaryMethod("LowStock", InventoryServer.LowStock),
		unaryMethod("ExpiringSoon", InventoryServer.ExpiringSoon),
	},
	Metadata: "foodshelter/inventory",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&inventoryServiceDesc, srv)
}

func unaryMethod[Req, Resp any](name string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + InventoryServiceName + "/" + name}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServer), ctx, req.(*Req))
			})
		},
	}
}

type GRPCHandler struct {
	inventory *service.InventoryService
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func NewGRPCHandler(inventory *service.InventoryService, m *metrics.Metrics, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		inventory: inventory,
		metrics:   m,
		logger:    logger.With().Str("component", "grpc").Logger(),
		now:       time.Now,
	}
}

func (h *GRPCHandler) CreateStockItem(ctx context.Context, req *CreateStockItemRequest) (*StockItemReply, error) {
	owner, err := ownerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	in, err := StockItemRequest{
		ItemName: req.ItemName, Category: req.Category, Quantity: req.Quantity, Unit: req.Unit,
		MinimumStock: req.MinimumStock, ExpirationDate: req.ExpirationDate,
	}.toInput()
	if err != nil {
		return h.stockFailure(err, msgStockAddFailed), nil
	}

	item, err := h.inventory.Create(ctx, owner, req.RequestID, in)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateRequest) {
			h.metrics.ObserveDuplicateCreate()
		}
		return h.stockFailure(err, msgStockAddFailed), nil
	}
	out := toStockItemJSON(item)
	return &StockItemReply{Success: true, Message: msgStockAdded, Item: &out}, nil
}

func (h *GRPCHandler) DeleteStockItem(ctx context.Context, req *DeleteStockItemRequest) (*DeleteStockItemReply, error) {
	owner, err := ownerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	outcome, err := h.inventory.Delete(ctx, owner, req.ID)
	if err != nil {
		var conflict *service.DependencyConflictError
		if errors.As(err, &conflict) {
			h.metrics.ObserveBlockedDelete()
			return &DeleteStockItemReply{Success: false, Message: conflict.Error(), BlockingMealPlans: conflict.MealPlans}, nil
		}
		h.logger.Error().Err(err).Str("item", req.ID).Msg("delete failed")
		return &DeleteStockItemReply{Success: false, Message: msgStockDeleteFail}, nil
	}
	if outcome == service.DeleteOutcomeNotFound {
		return &DeleteStockItemReply{Success: false, Message: msgItemNotFound}, nil
	}
	return &DeleteStockItemReply{Success: true, Message: msgStockDeleted}, nil
}

func (h *GRPCHandler) PatchStockItem(ctx context.Context, req *PatchStockItemRequest) (*StockItemReply, error) {
	owner, err := ownerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	item, err := h.inventory.ApplyPatch(ctx, owner, req.ID, req.Fields)
	if err != nil {
		return h.stockFailure(err, msgStockUpdateFail), nil
	}
	out := toStockItemJSON(item)
	return &StockItemReply{Success: true, Message: msgStockUpdated, Item: &out}, nil
}

func (h *GRPCHandler) LowStock(ctx context.Context, _ *ListStockItemsRequest) (*StockItemsReply, error) {
	owner, err := ownerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.inventory.LowStock(ctx, owner)
	if err != nil {
		h.logger.Error().Err(err).Msg("low stock failed")
		return &StockItemsReply{Success: false, Message: msgLoadFailed, Items: []StockItemJSON{}}, nil
	}
	return &StockItemsReply{Success: true, Items: toStockItemsJSON(items)}, nil
}

func (h *GRPCHandler) ExpiringSoon(ctx context.Context, _ *ListStockItemsRequest) (*StockItemsReply, error) {
	owner, err := ownerFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.inventory.ExpiringSoon(ctx, owner, h.now().UTC())
	if err != nil {
		h.logger.Error().Err(err).Msg("expiring soon failed")
		return &StockItemsReply{Success: false, Message: msgLoadFailed, Items: []StockItemJSON{}}, nil
	}
	return &StockItemsReply{Success: true, Items: toStockItemsJSON(items)}, nil
}

func (h *GRPCHandler) stockFailure(err error, fallback string) *StockItemReply {
	var (
		verr    *service.ValidationError
		missing *service.MissingFieldError
		invalid *service.InvalidFieldError
	)
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		return &StockItemReply{Success: false, Message: msgDuplicate}
	case errors.Is(err, service.ErrNotFound):
		return &StockItemReply{Success: false, Message: msgStockNotFound}
	case errors.As(err, &verr):
		return &StockItemReply{Success: false, Message: msgInvalidRequest, Errors: verr.Problems}
	case errors.As(err, &missing):
		return &StockItemReply{Success: false, Message: missing.Error(), Errors: []string{missing.Error()}}
	case errors.As(err, &invalid):
		return &StockItemReply{Success: false, Message: invalid.Error(), Errors: []string{invalid.Error()}}
	default:
		h.logger.Error().Err(err).Msg("stock request failed")
		return &StockItemReply{Success: false, Message: fallback}
	}
}

func ownerFromMetadata(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if vals := md.Get(OwnerMetadataKey); len(vals) > 0 && vals[0] != "" {
		return vals[0], nil
	}
	return "", status.Error(codes.Unauthenticated, "missing "+OwnerMetadataKey)
}

// InventoryClient calls foodshelter.InventoryService over the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

// WithOwner attaches the owner id the server expects on every call.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, OwnerMetadataKey, ownerID)
}

func (c *InventoryClient) CreateStockItem(ctx context.Context, req *CreateStockItemRequest, opts ...grpc.CallOption) (*StockItemReply, error) {
	return invoke[StockItemReply](ctx, c.cc, "CreateStockItem", req, opts)
}

func (c *InventoryClient) DeleteStockItem(ctx context.Context, req *DeleteStockItemRequest, opts ...grpc.CallOption) (*DeleteStockItemReply, error) {
	return invoke[DeleteStockItemReply](ctx, c.cc, "DeleteStockItem", req, opts)
}

func (c *InventoryClient) PatchStockItem(ctx context.Context, req *PatchStockItemRequest, opts ...grpc.CallOption) (*StockItemReply, error) {
	return invoke[StockItemReply](ctx, c.cc, "PatchStockItem", req, opts)
}

func (c *InventoryClient) LowStock(ctx context.Context, opts ...grpc.CallOption) (*StockItemsReply, error) {
	return invoke[StockItemsReply](ctx, c.cc, "LowStock", &ListStockItemsRequest{}, opts)
}

func (c *InventoryClient) ExpiringSoon(ctx context.Context, opts ...grpc.CallOption) (*StockItemsReply, error) {
	return invoke[StockItemsReply](ctx, c.cc, "ExpiringSoon", &ListStockItemsRequest{}, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+InventoryServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
