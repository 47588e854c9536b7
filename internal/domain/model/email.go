package model

// メールAPIに渡すテンプレートID
const (
	EmailTemplateOrderNotification = "order_notification"
	EmailTemplateContactMessage    = "contact_message"
)

// テンプレートID + 宛先 + 置換変数（フラットな文字列のみ）
type EmailMessage struct {
	TemplateID string
	To         string
	Vars       map[string]string
}
