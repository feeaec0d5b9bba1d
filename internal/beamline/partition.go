package beamline

// NumChunks returns how many chunks an event of nParticles primaries splits
// into. An empty event still yields one empty chunk, so workers observe every
// event.
func NumChunks(nParticles, chunkSize int) int {
	if nParticles <= 0 {
		return 1
	}
	return (nParticles + chunkSize - 1) / chunkSize
}

// ChunkBounds returns the half-open particle range of the chunk with the
// given 0-based index. Chunks are cut from the back of the event towards the
// front, so only the last chunk may be short.
func ChunkBounds(nParticles, chunkSize, index int) (start, end int) {
	end = nParticles - index*chunkSize
	start = nParticles - (index+1)*chunkSize
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	return start, end
}
