package http

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRoomResponse struct {
	RoomID   string `json:"roomId"`
	TTL      int64  `json:"ttl"`
	Capacity int64  `json:"capacity"`
}

type TTLResponse struct {
	TTL int64 `json:"ttl"`
}

type SendMessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type MessageItem struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type MessagesResponse struct {
	Messages []MessageItem `json:"messages"`
}

type DestroyResponse struct {
	Status string `json:"status"`
}
