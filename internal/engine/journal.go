package engine

import (
	"context"
	"fmt"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/model"
	"github.com/roach88/dxexplorer/internal/store"
)

// Journal persists sessions and the calls they execute.
// Implemented by *store.Store.
type Journal interface {
	WriteSession(ctx context.Context, sess store.Session) error
	WriteCall(ctx context.Context, c store.Call) error
}

// RecordOf converts an executed call into its journal record.
// The record id is content-addressed over (session, seq, method, endpoint,
// response body).
func RecordOf(sessionID string, call *client.NetCall) (store.Call, error) {
	id, err := model.CallID(sessionID, call.Seq, call.Method, call.Endpoint, call.ResponseBody)
	if err != nil {
		return store.Call{}, err
	}
	return store.Call{
		ID:              id,
		SessionID:       sessionID,
		Seq:             call.Seq,
		Type:            call.Type.String(),
		ID1:             call.ID1,
		ID2:             call.ID2,
		WorkTypeID:      call.WorkTypeID,
		Method:          call.Method,
		Endpoint:        call.Endpoint,
		RequestHeaders:  call.RequestHeaders,
		RequestBody:     call.RequestBody,
		Succeeded:       call.Succeeded,
		StatusCode:      call.StatusCode,
		ETag:            call.ETag,
		ResponseHeaders: call.ResponseHeaders,
		ResponseBody:    call.ResponseBody,
		ErrorMessage:    call.ErrorMessage,
	}, nil
}

// CallFromRecord rebuilds an executed call from its journal record.
func CallFromRecord(rec store.Call) (*client.NetCall, error) {
	ct, ok := client.ParseCallType(rec.Type)
	if !ok {
		return nil, fmt.Errorf("unknown call type %q", rec.Type)
	}
	call := client.NewCall(ct)
	call.Seq = rec.Seq
	call.ID1 = rec.ID1
	call.ID2 = rec.ID2
	call.WorkTypeID = rec.WorkTypeID
	call.Method = rec.Method
	call.Endpoint = rec.Endpoint
	call.RequestBody = rec.RequestBody
	call.Succeeded = rec.Succeeded
	call.StatusCode = rec.StatusCode
	call.ETag = rec.ETag
	call.ResponseBody = rec.ResponseBody
	call.ErrorMessage = rec.ErrorMessage
	if rec.RequestHeaders != nil {
		call.RequestHeaders = rec.RequestHeaders.Clone()
	}
	if rec.ResponseHeaders != nil {
		call.ResponseHeaders = rec.ResponseHeaders.Clone()
	}
	return call, nil
}
