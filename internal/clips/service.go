package clips

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// chunkSize is the read size of the receive loop. Overage is detected at
// this granularity.
const chunkSize = 32 * 1024

// DurationProber reports the play time of a media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Service runs upload admission and the other clip operations against a
// Store, a CapacityTracker and a DurationGate.
//
// The capacity check at admission is not a reservation. Two uploads admitted
// before either commits can both pass the check and together exceed the
// remaining budget; Remaining only ever reflects committed clips.
type Service struct {
	store    *Store
	capacity *CapacityTracker
	gate     *DurationGate
	prober   DurationProber
	log      *slog.Logger
}

// NewService wires the admission pipeline.
func NewService(store *Store, capacity *CapacityTracker, gate *DurationGate, prober DurationProber, log *slog.Logger) *Service {
	return &Service{store: store, capacity: capacity, gate: gate, prober: prober, log: log}
}

// uploadSession is the transient state of one in-flight upload.
type uploadSession struct {
	id       string
	declared int64
	received int64
	aborted  bool
	file     *os.File
	digest   hash.Hash
}

// ParseDeclaredSize parses the size a client promises to send.
func ParseDeclaredSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalidInput("Size has to be given.")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, invalidInput("Size has to be a number")
	}
	return n, nil
}

// Upload admits a single clip. body is consumed chunk by chunk; the upload is
// aborted as soon as more than declaredSize bytes have arrived. On success the
// clip is committed under id and its size is recorded against capacity. On any
// failure the staging file is removed and capacity is left untouched.
func (s *Service) Upload(ctx context.Context, id string, declaredSize int64, body io.Reader) (UploadResult, error) {
	// Admitting
	if declaredSize < 0 {
		return UploadResult{}, invalidInput("Size has to be a number")
	}
	if !ValidUploadID(id) {
		return UploadResult{}, invalidInput("Id has to be a string")
	}
	if remaining := s.capacity.Remaining(); remaining < declaredSize {
		return UploadResult{}, insufficientCapacity(declaredSize, remaining)
	}

	f, err := s.store.Create(id)
	if err != nil {
		return UploadResult{}, storageFailure("create", err)
	}
	sess := &uploadSession{id: id, declared: declaredSize, file: f, digest: sha256.New()}

	res, err := s.run(ctx, sess, body)
	if err != nil {
		s.discard(sess)
		s.log.Info("upload rejected",
			slog.String("id", id),
			slog.String("kind", string(KindOf(err))),
			slog.Int64("declared", declaredSize),
			slog.Int64("received", sess.received),
			slog.Bool("aborted", sess.aborted),
			slog.String("error", err.Error()))
		return UploadResult{}, err
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, sess *uploadSession, body io.Reader) (UploadResult, error) {
	if err := s.receive(ctx, sess, body); err != nil {
		return UploadResult{}, err
	}
	if err := sess.file.Close(); err != nil {
		sess.file = nil
		return UploadResult{}, storageFailure("flush", err)
	}
	sess.file = nil

	if sess.received != sess.declared {
		return UploadResult{}, sizeMismatch(sess.declared, sess.received)
	}

	if err := s.verify(ctx, sess); err != nil {
		return UploadResult{}, err
	}

	// Committing
	if err := s.store.Commit(sess.id); err != nil {
		return UploadResult{}, storageFailure("commit", err)
	}
	s.capacity.Record(sess.declared)

	res := UploadResult{BytesReceived: sess.received, Digest: hex.EncodeToString(sess.digest.Sum(nil))}
	s.log.Info("upload committed",
		slog.String("id", sess.id),
		slog.Int64("bytes", res.BytesReceived),
		slog.String("sha256", res.Digest),
		slog.Int64("remaining", s.capacity.Remaining()))
	return res, nil
}

// receive copies body into the staging file one chunk at a time. The running
// total is checked before each write so an oversized upload never writes the
// chunk that crossed the declared size.
func (s *Service) receive(ctx context.Context, sess *uploadSession, body io.Reader) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			sess.aborted = true
			return aborted(sess.received, err)
		}

		n, rerr := body.Read(buf)
		if n > 0 {
			sess.received += int64(n)
			if sess.received > sess.declared {
				sess.aborted = true
				return payloadTooLarge(sess.declared, sess.received)
			}
			chunk := buf[:n]
			if _, err := sess.file.Write(chunk); err != nil {
				return storageFailure("write", err)
			}
			sess.digest.Write(chunk)
		}

		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			sess.aborted = true
			return aborted(sess.received, rerr)
		}
	}
}

// verify probes the staged file and applies the duration gate.
func (s *Service) verify(ctx context.Context, sess *uploadSession) error {
	if !s.gate.IsConfigured() {
		return notConfigured()
	}
	d, err := s.prober.ProbeDuration(ctx, s.store.stagingPath(sess.id))
	if err != nil {
		if ctx.Err() != nil {
			sess.aborted = true
			return aborted(sess.received, ctx.Err())
		}
		return invalidVideo(err)
	}
	if !s.gate.Accepts(d) {
		return durationOutOfRange(d)
	}
	return nil
}

func (s *Service) discard(sess *uploadSession) {
	if sess.file != nil {
		sess.file.Close()
		sess.file = nil
	}
	if err := s.store.Discard(sess.id); err != nil {
		s.log.Error("discard staging file failed", slog.String("id", sess.id), slog.String("error", err.Error()))
	}
}

// Open returns the committed clip id for serving.
func (s *Service) Open(id string) (*os.File, os.FileInfo, error) {
	if !ValidUploadID(id) {
		return nil, nil, ErrInvalidInput
	}
	return s.store.Open(id)
}

// Delete removes the committed clip id. Capacity is not credited back: the
// tracker only ever grows with committed uploads until the next restart.
func (s *Service) Delete(id string) error {
	if !ValidUploadID(id) {
		return ErrInvalidInput
	}
	if err := s.store.Remove(id); err != nil {
		if errors.Is(err, ErrClipNotFound) {
			return err
		}
		s.log.Error("delete failed", slog.String("id", id), slog.String("error", err.Error()))
		return err
	}
	s.log.Info("clip deleted", slog.String("id", id))
	return nil
}

// SetBounds reconfigures the duration gate.
func (s *Service) SetBounds(min, max float64) error {
	if err := s.gate.Configure(min, max); err != nil {
		return err
	}
	s.log.Info("duration bounds set", slog.Float64("min", min), slog.Float64("max", max))
	return nil
}

// Remaining returns the tracker's remaining capacity.
func (s *Service) Remaining() int64 {
	return s.capacity.Remaining()
}

// Capacity returns a snapshot of the tracker counters.
func (s *Service) Capacity() CapacityState {
	return s.capacity.Snapshot()
}
