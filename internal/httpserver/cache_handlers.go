package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/client"
	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/models"
	"go-cache-interceptor/internal/resolver"
	"go-cache-interceptor/internal/utils"
)

// PayloadType is the response type of fetches that do not name one
var PayloadType = models.ResponseTypeOf[*Payload]()

func newPayload() any {
	return &Payload{}
}

// decodePayload keeps JSON bodies as is and wraps anything else in a JSON string
func decodePayload(data []byte) (any, error) {
	body := data
	if !json.Valid(data) {
		encoded, err := json.Marshal(string(data))
		if err != nil {
			return nil, err
		}
		body = encoded
	}
	return &Payload{Body: body}, nil
}

func toDirectives(requests []DirectiveRequest) ([]directive.Directive, error) {
	directives := make([]directive.Directive, 0, len(requests))
	for i, req := range requests {
		d, err := req.spec().Directive()
		if err != nil {
			return nil, fmt.Errorf("directive %d: %w", i, err)
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// handleFetch runs a call and returns its emissions
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		s.writeErrorResponse(w, "Missing required field: url", http.StatusBadRequest)
		return
	}

	mode, err := models.ParseConsumptionMode(req.Mode)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	directives, err := toDirectives(req.Directives)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	header := http.Header{}
	for name, value := range req.Headers {
		header.Set(name, value)
	}

	responseType := models.ResponseType(req.ResponseType)
	if responseType == "" {
		responseType = PayloadType
	}
	if !mode.IsCompletable() && s.params.Factory != nil {
		s.params.Factory.Register(responseType, newPayload)
	}

	call := client.Call{
		ResponseType: responseType,
		Request: models.RequestMetadata{
			Method: method,
			URL:    req.URL,
			Body:   []byte(req.Body),
			Header: header,
		},
		Mode:       mode,
		Directives: directives,
		Header:     req.Instruction,
		Decode:     decodePayload,
	}

	response := FetchResponse{Success: true, Emissions: []EmissionResponse{}}
	for emission := range s.params.Client.Execute(r.Context(), call) {
		out := EmissionResponse{}
		if emission.Err != nil {
			response.Success = false
			out.Error = emission.Err.Error()
		} else if payload, ok := emission.Response.(*Payload); ok {
			out.Response = payload.Body
			out.Metadata = payload.CacheMetadata()
		} else {
			// completion values carry nothing
			continue
		}
		response.Emissions = append(response.Emissions, out)
	}

	if mode.IsSingle() && len(response.Emissions) == 1 && response.Emissions[0].Metadata != nil {
		utils.SetMetadataHeaders(w.Header(), *response.Emissions[0].Metadata)
	}
	s.logger.Debug("Fetch handled",
		zap.String("url", req.URL),
		zap.String("mode", mode.String()),
		zap.Int("emissions", len(response.Emissions)))
	s.writeResponse(w, &response)
}

// handleInvalidate marks the entries of a response type stale
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.ResponseType == "" {
		s.writeErrorResponse(w, "Missing required field: response_type", http.StatusBadRequest)
		return
	}

	count := s.params.CacheService.Invalidate(models.ResponseType(req.ResponseType))
	s.writeResponse(w, &CountResponse{Success: true, Count: count})
}

// handleClear removes the entries of a response type, or every entry
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	count := s.params.CacheService.Clear(models.ResponseType(req.ResponseType), req.OldEntriesOnly)
	s.writeResponse(w, &CountResponse{Success: true, Count: count})
}

// handleEncodeInstruction resolves directives into an instruction header value
func (s *Server) handleEncodeInstruction(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.ResponseType == "" || len(req.Directives) == 0 {
		s.writeErrorResponse(w, "Missing required fields: response_type, directives", http.StatusBadRequest)
		return
	}

	mode, err := models.ParseConsumptionMode(req.Mode)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	directives, err := toDirectives(req.Directives)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	header, err := s.params.Client.Instruction(models.ResponseType(req.ResponseType), mode, directives...)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeInstruction(w, header)
}

// handleDecodeInstruction describes an instruction header value
func (s *Server) handleDecodeInstruction(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Instruction == "" {
		s.writeErrorResponse(w, "Missing required field: instruction", http.StatusBadRequest)
		return
	}
	s.writeInstruction(w, req.Instruction)
}

func (s *Server) writeInstruction(w http.ResponseWriter, header string) {
	instruction, err := resolver.Deserialise(header)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeResponse(w, &InstructionResponse{
		Success:      true,
		Instruction:  header,
		ResponseType: instruction.ResponseType,
		Operation:    instruction.Operation.Type(),
		Description:  instruction.String(),
	})
}
