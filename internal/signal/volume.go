package signal

import "github.com/illi4/asx-screener/pkg/indicator"

const volumeMALength = 20

// VolumeSpike: last volume >= 20-period volume MA x multiplier
func VolumeSpike(s Snapshot, multiplier float64) Condition {
	return volumeAboveAverage(s, CondVolumeSpike, multiplier)
}

// RedDayVolume: last volume >= 20-period volume MA
func RedDayVolume(s Snapshot) Condition {
	return volumeAboveAverage(s, CondRedDayVolume, 1)
}

func volumeAboveAverage(s Snapshot, name string, multiplier float64) Condition {
	volumes := s.Volumes()
	last, ok := indicator.Last(volumes, 0)
	avg, okMA := indicator.Last(s.volumeMA(volumeMALength), 0)
	if !ok || !okMA {
		return degraded(s, name, false, "Issue indexing volume")
	}
	return newCondition(name, last >= avg*multiplier)
}
