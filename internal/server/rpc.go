package server

import (
	"context"
	"errors"
	"net/http"

	"cricket-tracker/internal/api"
	"cricket-tracker/internal/domain"
	"cricket-tracker/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GetMatchesProcedure takes the feed name as a StringValue and answers with
// the flattened records as a ListValue.
const GetMatchesProcedure = "/cricket.v1.MatchFeed/GetMatches"

type FeedServer struct {
	matchSvc *service.MatchService
	logger   zerolog.Logger
}

func NewFeedServer(matchSvc *service.MatchService, logger zerolog.Logger) *FeedServer {
	return &FeedServer{matchSvc: matchSvc, logger: logger}
}

func (s *FeedServer) Handler() (string, http.Handler) {
	return GetMatchesProcedure, connect.NewUnaryHandler(GetMatchesProcedure, s.GetMatches)
}

func (s *FeedServer) GetMatches(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.ListValue], error) {
	feed, err := domain.ParseFeed(req.Msg.GetValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	records, err := s.matchSvc.GetMatches(ctx, feed)
	if err != nil {
		return nil, connect.NewError(connectCode(err), err)
	}

	list, err := toListValue(records)
	if err != nil {
		s.logger.Error().Err(err).Str("feed", string(feed)).Msg("failed to convert records")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(list), nil
}

func toListValue(records []domain.Record) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(records))}
	for _, rec := range records {
		v := &structpb.Value{}
		if err := protojson.Unmarshal(rec, v); err != nil {
			return nil, err
		}
		list.Values = append(list.Values, v)
	}
	return list, nil
}

func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, api.ErrUpstreamStatus), errors.Is(err, service.ErrMalformedPayload):
		return connect.CodeUnavailable
	}
	return connect.CodeInternal
}
