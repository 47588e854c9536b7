package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
	log   *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, log *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, msgDBError)
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新（監査ログ付き）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID string, orderID string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, msgNotFound)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		// 終端ガード
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "cannot change cancelled order")
		}
		if o.Status == model.OrderStatusDelivered && newStatus != model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "cannot change delivered order")
		}

		// ステータス更新
		before := o.Status
		if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, msgNotFound)
			}
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   statusJSON(before),
			AfterJSON:    statusJSON(newStatus),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("actor", actorAdminUserID),
		zap.String("status", string(newStatus)),
	)
	return out, nil
}

// AuditTrailQuery は注文の変更履歴の絞り込み（nilは指定なし）
type AuditTrailQuery struct {
	Limit       int
	Offset      int
	ActorUserID *string
	Action      *model.AuditAction
	From        *time.Time
	To          *time.Time
}

// AuditTrail は注文1件の変更履歴（新しい順）
func (u *AdminOrderUsecase) AuditTrail(ctx context.Context, orderID string, q AuditTrailQuery) ([]model.AuditLog, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if q.Limit < 1 || q.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if q.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if q.Action != nil && !q.Action.Valid() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid range")
	}

	rt := model.AuditResourceOrder
	var logs []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, msgNotFound)
			}
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}
		got, err := r.AuditLogs().List(ctx, repo.AuditLogFilter{
			ActorUserID:  q.ActorUserID,
			Action:       q.Action,
			ResourceType: &rt,
			ResourceID:   &orderID,
			CreatedFrom:  q.From,
			CreatedTo:    q.To,
			Limit:        q.Limit,
			Offset:       q.Offset,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, msgDBError)
		}
		logs = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

func statusJSON(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]string{"status": string(s)})
	return string(b)
}

// 期間パラメータ（RFC3339）。空ならnil
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
