package wechat

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wx-home-bot/internal/domain"
)

// ErrEmptyBody тело запроса пустое.
var ErrEmptyBody = errors.New("wechat: empty body")

// inbound XML входящего сообщения или события.
type inbound struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   string   `xml:"ToUserName"`
	FromUserName string   `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      string   `xml:"MsgType"`
	MsgID        string   `xml:"MsgId"`
	Content      string   `xml:"Content"`
	PicURL       string   `xml:"PicUrl"`
	MediaID      string   `xml:"MediaId"`
	LocationX    string   `xml:"Location_X"`
	LocationY    string   `xml:"Location_Y"`
	Label        string   `xml:"Label"`
	Event        string   `xml:"Event"`
	EventKey     string   `xml:"EventKey"`
}

// Decode разбирает XML-тело в событие. Неизвестные типы получают EventUnknown.
func Decode(body []byte) (domain.InboundEvent, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.InboundEvent{}, ErrEmptyBody
	}
	var in inbound
	if err := xml.Unmarshal(body, &in); err != nil {
		return domain.InboundEvent{}, fmt.Errorf("wechat: decode xml: %w", err)
	}
	ev := domain.InboundEvent{
		MsgID:     in.MsgID,
		UserID:    in.FromUserName,
		AccountID: in.ToUserName,
		CreatedAt: time.Unix(in.CreateTime, 0),
	}
	switch in.MsgType {
	case "text":
		ev.Kind, ev.Content = domain.EventText, in.Content
	case "image":
		ev.Kind, ev.PicURL, ev.MediaRef = domain.EventImage, in.PicURL, in.MediaID
	case "location":
		ev.Kind, ev.Label = domain.EventLocation, in.Label
		ev.Latitude, _ = strconv.ParseFloat(strings.TrimSpace(in.LocationX), 64)
		ev.Longitude, _ = strconv.ParseFloat(strings.TrimSpace(in.LocationY), 64)
	case "event":
		switch strings.ToLower(in.Event) {
		case "subscribe":
			ev.Kind = domain.EventSubscribe
		case "unsubscribe":
			ev.Kind = domain.EventUnsubscribe
		default:
			ev.Kind = domain.EventUnknown
		}
	default:
		ev.Kind = domain.EventUnknown
	}
	return ev, nil
}

type cdata struct {
	Value string `xml:",cdata"`
}

type textReply struct {
	XMLName      xml.Name `xml:"xml"`
	ToUserName   cdata    `xml:"ToUserName"`
	FromUserName cdata    `xml:"FromUserName"`
	CreateTime   int64    `xml:"CreateTime"`
	MsgType      cdata    `xml:"MsgType"`
	Content      cdata    `xml:"Content"`
}

// EncodeText пассивный текстовый ответ: получатель пользователь, отправитель аккаунт.
func EncodeText(ev domain.InboundEvent, content string, now time.Time) ([]byte, error) {
	out, err := xml.Marshal(textReply{
		ToUserName:   cdata{ev.UserID},
		FromUserName: cdata{ev.AccountID},
		CreateTime:   now.Unix(),
		MsgType:      cdata{"text"},
		Content:      cdata{Clip(content)},
	})
	if err != nil {
		return nil, fmt.Errorf("wechat: encode reply: %w", err)
	}
	return out, nil
}
