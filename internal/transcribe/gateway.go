package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// GatewayService is the gRPC service name of the speech gateway.
	GatewayService = "candor.speech.v1.SpeechGateway"
	// RecognizeMethod is the full bidirectional streaming method path.
	RecognizeMethod = "/" + GatewayService + "/StreamingRecognize"
)

// RecognizeStreamDesc describes the gateway's bidirectional recognize stream.
var RecognizeStreamDesc = grpc.StreamDesc{
	StreamName:    "StreamingRecognize",
	ServerStreams: true,
	ClientStreams: true,
}

// Gateway streams audio to a speech gateway over gRPC. Audio chunks travel as
// BytesValue messages; results come back as Struct messages carrying
// transcript, is_final, and confidence.
type Gateway struct {
	Endpoint    string
	DialTimeout time.Duration
	// DebugSink receives one protojson line per result when set.
	DebugSink   io.Writer
	DialOptions []grpc.DialOption
}

func (g Gateway) dial(ctx context.Context) (*grpc.ClientConn, error) {
	endpoint := strings.TrimSpace(g.Endpoint)
	if endpoint == "" {
		return nil, errors.New("speech gateway endpoint is empty")
	}
	timeout := g.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, g.DialOptions...)
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial speech gateway %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wait for speech gateway readiness: %w", err)
	}
	return conn, nil
}

// Health queries the standard gRPC health service for the gateway.
func (g Gateway) Health(ctx context.Context) error {
	conn, err := g.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: GatewayService})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("speech gateway status %s", resp.GetStatus())
	}
	return nil
}

// Stream opens one recognize session.
func (g Gateway) Stream(ctx context.Context, cfg StreamConfig, onResult func(Result)) (AudioStream, error) {
	conn, err := g.dial(ctx)
	if err != nil {
		return nil, err
	}

	md := metadata.Pairs(
		"x-language", cfg.Language,
		"x-sample-rate", strconv.Itoa(cfg.SampleRate),
	)
	if cfg.MIMEType != "" {
		md.Append("x-audio-mime", cfg.MIMEType)
	}
	for _, phrase := range cfg.Phrases {
		md.Append("x-phrase", phrase.Text+"|"+strconv.FormatFloat(float64(phrase.Boost), 'f', 1, 32))
	}
	streamCtx, cancel := context.WithCancel(metadata.NewOutgoingContext(context.WithoutCancel(ctx), md))

	stream, err := conn.NewStream(streamCtx, &RecognizeStreamDesc, RecognizeMethod)
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, fmt.Errorf("open streaming recognizer: %w", err)
	}

	s := &gatewayStream{
		conn:     conn,
		stream:   stream,
		cancel:   cancel,
		onResult: onResult,
		sink:     g.DebugSink,
		recvDone: make(chan struct{}),
	}
	go s.recvLoop()
	return s, nil
}

type gatewayStream struct {
	conn     *grpc.ClientConn
	stream   grpc.ClientStream
	cancel   context.CancelFunc
	onResult func(Result)
	sink     io.Writer

	recvDone chan struct{}

	mu         sync.Mutex
	sendMu     sync.Mutex
	recvErr    error
	closedSend bool
}

func (s *gatewayStream) recvLoop() {
	defer close(s.recvDone)

	for {
		msg := &structpb.Struct{}
		err := s.stream.RecvMsg(msg)
		if err == nil {
			s.record(msg)
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		s.mu.Lock()
		s.recvErr = err
		s.mu.Unlock()
		return
	}
}

func (s *gatewayStream) record(msg *structpb.Struct) {
	if s.sink != nil {
		if b, err := protojson.Marshal(msg); err == nil {
			_, _ = s.sink.Write(append(b, '\n'))
		}
	}
	if s.onResult == nil {
		return
	}
	fields := msg.GetFields()
	s.onResult(Result{
		Transcript: fields["transcript"].GetStringValue(),
		Final:      fields["is_final"].GetBoolValue(),
		Confidence: fields["confidence"].GetNumberValue(),
	})
}

func (s *gatewayStream) Send(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	s.mu.Lock()
	closed := s.closedSend
	recvErr := s.recvErr
	s.mu.Unlock()

	if closed {
		return errors.New("stream already closed for sending")
	}
	if recvErr != nil {
		return fmt.Errorf("stream receive loop failed: %w", recvErr)
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.stream.SendMsg(wrapperspb.Bytes(chunk))
}

func (s *gatewayStream) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedSend {
		return
	}
	s.closedSend = true
	s.sendMu.Lock()
	_ = s.stream.CloseSend()
	s.sendMu.Unlock()
}

func (s *gatewayStream) Close(ctx context.Context) error {
	s.closeSend()
	defer s.shutdown()

	select {
	case <-s.recvDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvErr
}

func (s *gatewayStream) Cancel() error {
	s.closeSend()
	s.shutdown()
	return nil
}

func (s *gatewayStream) shutdown() {
	s.cancel()
	_ = s.conn.Close()
}

// waitForReady blocks until the connection is Ready or the context ends.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
