// Package segment splits snapshots and journals into content-addressed
// chunks small enough to gossip and fetch independently, producing
// manifests a peer can verify without trusting the sender.
package segment

import (
	"fmt"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/proto"
)

// EventEntry is the minimal shape segment needs from a journal event: its
// id, so segment boundaries can be reported without re-decoding bodies.
type EventEntry interface {
	EventID() proto.WorldEventID
}

// Snapshot produces segment splits whole snapshot state into fixed-size
// content-addressed chunks.
func Snapshot(snapshotBytes []byte, worldID string, epoch uint64, store blobstore.Store, cfg proto.SegmentConfig) (proto.SnapshotManifest, error) {
	stateRoot := proto.ContentHash(snapshotBytes)
	chunkSize := cfg.SnapshotChunkBytes
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks []proto.StateChunkRef
	for index := 0; ; index++ {
		start := index * chunkSize
		if start >= len(snapshotBytes) {
			break
		}
		end := start + chunkSize
		if end > len(snapshotBytes) {
			end = len(snapshotBytes)
		}
		chunk := snapshotBytes[start:end]
		contentHash, err := store.PutBytes(chunk)
		if err != nil {
			return proto.SnapshotManifest{}, proto.WrapError(proto.ErrJournal, "segment.Snapshot", "store chunk", err)
		}
		chunks = append(chunks, proto.StateChunkRef{
			ChunkID:     fmt.Sprintf("%d-%04d", epoch, index),
			ContentHash: contentHash,
			SizeBytes:   uint64(len(chunk)),
		})
		if end == len(snapshotBytes) {
			break
		}
	}
	if len(snapshotBytes) == 0 {
		// An empty snapshot still produces one zero-length chunk so the
		// manifest is never trivially empty.
		contentHash, err := store.PutBytes(nil)
		if err != nil {
			return proto.SnapshotManifest{}, proto.WrapError(proto.ErrJournal, "segment.Snapshot", "store empty chunk", err)
		}
		chunks = append(chunks, proto.StateChunkRef{ChunkID: fmt.Sprintf("%d-%04d", epoch, 0), ContentHash: contentHash})
	}

	return proto.SnapshotManifest{
		WorldID:   worldID,
		Epoch:     epoch,
		Chunks:    chunks,
		StateRoot: stateRoot,
	}, nil
}

// ReassembleSnapshot fetches every chunk in order and concatenates them,
// verifying the result hashes to manifest.StateRoot.
func ReassembleSnapshot(manifest proto.SnapshotManifest, store blobstore.Store) ([]byte, error) {
	var out []byte
	for _, chunk := range manifest.Chunks {
		bytes, err := store.Get(chunk.ContentHash)
		if err != nil {
			return nil, proto.WrapError(proto.ErrJournal, "segment.ReassembleSnapshot", "fetch chunk "+chunk.ChunkID, err)
		}
		out = append(out, bytes...)
	}
	if actual := proto.ContentHash(out); actual != manifest.StateRoot {
		return nil, proto.NewError(proto.ErrStructural, "segment.ReassembleSnapshot",
			fmt.Sprintf("state root mismatch: expected %s got %s", manifest.StateRoot, actual))
	}
	return out, nil
}

// Journal splits events into fixed event-count segments, each stored as
// its own canonical-CBOR-encoded blob.
func Journal[T EventEntry](events []T, store blobstore.Store, cfg proto.SegmentConfig) ([]proto.JournalSegmentRef, error) {
	if len(events) == 0 {
		return nil, nil
	}
	maxEvents := cfg.JournalEventsPerSegment
	if maxEvents < 1 {
		maxEvents = 1
	}

	var segments []proto.JournalSegmentRef
	for start := 0; start < len(events); start += maxEvents {
		end := start + maxEvents
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]
		encoded, err := proto.Marshal(batch)
		if err != nil {
			return nil, proto.WrapError(proto.ErrStructural, "segment.Journal", "encode segment", err)
		}
		contentHash, err := store.PutBytes(encoded)
		if err != nil {
			return nil, proto.WrapError(proto.ErrJournal, "segment.Journal", "store segment", err)
		}
		segments = append(segments, proto.JournalSegmentRef{
			FromEventID: batch[0].EventID(),
			ToEventID:   batch[len(batch)-1].EventID(),
			ContentHash: contentHash,
			SizeBytes:   uint64(len(encoded)),
		})
	}
	return segments, nil
}
