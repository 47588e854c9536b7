// Package tracking は注文の配送状況をシミュレーションする。
// 実際の配送業者とは連携しておらず、注文からの経過日数だけで決まる。
package tracking

import (
	"time"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

const day = 24 * time.Hour

// 配送予定日（注文日から）
const DeliveryDays = 7

// Stage はタイムラインの1段階
type Stage struct {
	Status      model.OrderStatus `json:"status"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	EstimatedAt time.Time         `json:"estimated_at"`
	Completed   bool              `json:"completed"`
	Current     bool              `json:"current"`
}

// Timeline は注文1件の追跡結果
type Timeline struct {
	OrderNumber      string            `json:"order_number"`
	Status           model.OrderStatus `json:"status"`
	OrderedAt        time.Time         `json:"ordered_at"`
	ExpectedDelivery time.Time         `json:"expected_delivery"`
	DaysElapsed      int               `json:"days_elapsed"`
	Stages           []Stage           `json:"stages"`
}

type stageDef struct {
	status      model.OrderStatus
	title       string
	description string
	fromDay     int // この日数が経過したら到達
	estimateDay int // 表示用の予定日
}

var stages = []stageDef{
	{model.OrderStatusPending, "Order Placed", "Your order has been received", 0, 0},
	{model.OrderStatusPreparing, "Preparing", "Your personalized comic is being created", 1, 2},
	{model.OrderStatusShipped, "Shipped", "Your order is on its way", 2, 4},
	{model.OrderStatusOutForDelivery, "Out for Delivery", "Your order is out for delivery", 4, 6},
	{model.OrderStatusDelivered, "Delivered", "Your order has been delivered", 6, DeliveryDays},
}

// StatusAt は経過日数から今の段階を返す
func StatusAt(daysElapsed int) model.OrderStatus {
	status := model.OrderStatusPending
	for _, s := range stages {
		if daysElapsed >= s.fromDay {
			status = s.status
		}
	}
	return status
}

// DaysElapsed は切り捨ての経過日数（未来の注文日は0）
func DaysElapsed(orderedAt, now time.Time) int {
	d := now.Sub(orderedAt)
	if d < 0 {
		return 0
	}
	return int(d / day)
}

// Track はタイムラインを組み立てる
// キャンセル済みの注文は段階を進めない
func Track(order model.Order, now time.Time) Timeline {
	elapsed := DaysElapsed(order.CreatedAt, now)

	current := StatusAt(elapsed)
	if order.Status == model.OrderStatusCancelled {
		current = model.OrderStatusCancelled
	}

	t := Timeline{
		OrderNumber:      order.OrderNumber,
		Status:           current,
		OrderedAt:        order.CreatedAt,
		ExpectedDelivery: order.CreatedAt.Add(DeliveryDays * day),
		DaysElapsed:      elapsed,
		Stages:           make([]Stage, 0, len(stages)),
	}

	reached := true
	for _, s := range stages {
		st := Stage{
			Status:      s.status,
			Title:       s.title,
			Description: s.description,
			EstimatedAt: order.CreatedAt.Add(time.Duration(s.estimateDay) * day),
		}
		if current != model.OrderStatusCancelled {
			st.Completed = reached && elapsed >= s.fromDay
			st.Current = s.status == current
		}
		reached = st.Completed
		t.Stages = append(t.Stages, st)
	}
	return t
}
