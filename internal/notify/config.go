package notify

type ChannelConfig struct {
	Type   string   `mapstructure:"type"`
	Events []string `mapstructure:"events"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`

	// Webhook
	URL string `mapstructure:"url"`
}
