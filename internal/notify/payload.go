package notify

import "time"

// Liker describes who sent a like.
type Liker struct {
	ID     string
	Type   string // "candidate" or "practice"
	Name   string
	Avatar *string
}

// LikeMessage builds the push for a received like.
func LikeMessage(l Liker) (Notification, map[string]string) {
	name := l.Name
	if name == "" {
		name = "Someone"
	}
	subject := "profile"
	if l.Type == "candidate" {
		subject = "job"
	}

	avatar := ""
	if l.Avatar != nil {
		avatar = *l.Avatar
	}

	n := Notification{
		Title:    "New like",
		Body:     name + " liked your " + subject,
		ImageURL: avatar,
	}
	data := map[string]string{
		"type":        "like",
		"likerId":     l.ID,
		"likerType":   l.Type,
		"likerName":   name,
		"likerAvatar": avatar,
	}
	return n, data
}

// Chat is a stored chat message to announce to its recipient.
type Chat struct {
	MessageID    string
	SenderID     string
	SenderName   string
	SenderAvatar string
	Message      string
	CreatedAt    time.Time
}

// ChatMessage builds the push for a new chat message.
func ChatMessage(c Chat) (Notification, map[string]string) {
	title := c.SenderName
	if title == "" {
		title = "New Message"
	}
	data := map[string]string{
		"type":         "chat",
		"messageId":    c.MessageID,
		"senderId":     c.SenderID,
		"senderName":   c.SenderName,
		"senderAvatar": c.SenderAvatar,
		"message":      c.Message,
		"timestamp":    c.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	return Notification{Title: title, Body: c.Message, ImageURL: c.SenderAvatar}, data
}
