package http

import (
	"github.com/vovakirdan/roomrelay/internal/core"
	"github.com/vovakirdan/roomrelay/internal/proto"
	"github.com/vovakirdan/roomrelay/internal/store"
)

func inboundToCommand(inbound proto.Inbound) *core.Command {
	cmd := &core.Command{
		Type:      inbound.Type,
		User:      inbound.User,
		Room:      inbound.Room,
		Profile:   inbound.Profile,
		Content:   inbound.Content,
		Data:      inbound.Data,
		Filename:  inbound.Filename,
		ID:        inbound.ID,
		Timestamp: inbound.Timestamp,
	}

	switch inbound.Type {
	case proto.InboundTypeJoin:
		cmd.Kind = core.CommandJoin
	case proto.InboundTypeMessage:
		cmd.Kind = core.CommandMessage
	case proto.InboundTypeImage:
		cmd.Kind = core.CommandImage
	case proto.InboundTypeLeave:
		cmd.Kind = core.CommandLeave
	default:
		cmd.Kind = core.CommandUnknown
	}
	return cmd
}

// outboundFromEvent returns the envelope for event, or nil if it has no wire form.
func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventMessage:
		return chatFromRecord(event.Message)
	case core.EventHistory:
		return proto.History{
			Type:     proto.OutboundTypeHistory,
			Room:     event.Room,
			Messages: chatsFromRecords(event.Messages),
		}
	case core.EventPopulation:
		return proto.Population{
			Type:  proto.OutboundTypePopulation,
			Room:  event.Room,
			Count: event.Count,
		}
	case core.EventUserList:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.UserList{
			Type:  proto.OutboundTypeUserList,
			Room:  event.Room,
			Users: users,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.NewError("unknown", "unknown error")
		}
		return proto.NewError(event.Error.Code, event.Error.Message)
	default:
		return nil
	}
}

func chatFromRecord(rec store.Record) proto.Chat {
	typ := proto.OutboundTypeMessage
	if rec.Kind == store.KindImage {
		typ = proto.OutboundTypeImage
	}
	return proto.Chat{
		Type:          typ,
		ID:            rec.ID,
		Room:          rec.Room,
		Content:       rec.Content,
		ImageRef:      rec.ImageRef,
		Sender:        rec.Sender,
		SenderProfile: rec.SenderProfile,
		Timestamp:     rec.Timestamp,
	}
}

func chatsFromRecords(records []store.Record) []proto.Chat {
	out := make([]proto.Chat, 0, len(records))
	for _, rec := range records {
		out = append(out, chatFromRecord(rec))
	}
	return out
}
