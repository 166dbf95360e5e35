package database

import "github.com/gogpu/a2c"

// Catalog device keys, as reported by the devices they were captured on.
const (
	NVIDIAGeForceRTX3070 = "NVIDIA GeForce RTX 3070"
	IntelHDGraphics4400  = "Intel HD Graphics 4400"
	AppleM1Pro           = "Apple M1 Pro"
	ARMMaliG78           = "ARM Mali-G78"
	PowerVRRogueGE8300   = "Imagination PowerVR Rogue GE8300"
	AMDRadeonRX580       = "AMD Radeon RX 580"
	QualcommAdreno630    = "Qualcomm Adreno 630"
)

const (
	catalogSampleCount       = 4
	appleLikeHalfDenominator = 255
)

type device struct {
	key string
	fn  *a2c.Function
}

func clause(numerator float64, masks ...uint32) a2c.Clause {
	return a2c.Clause{Numerator: numerator, Masks: masks}
}

func function(patternSize, halfDenominator int, downward bool, clauses ...a2c.Clause) *a2c.Function {
	return &a2c.Function{
		Name:        a2c.DefaultFunctionName,
		SampleCount: catalogSampleCount,
		PatternSize: patternSize,
		Threshold: a2c.ThresholdModel{
			HalfDenominator:  halfDenominator,
			TieBreakDownward: downward,
			Compressed:       true,
		},
		Clauses: clauses,
	}
}

// appleLike is shared by Apple and Imagination GPUs: a 2x2 ordered dither
// over 16 steps of 1/255.
func appleLike() *a2c.Function {
	return function(2, appleLikeHalfDenominator, false,
		clause(7.5, 0x0, 0x0, 0x0, 0x0),
		clause(23.5, 0x1, 0x0, 0x0, 0x0),
		clause(39.5, 0x1, 0x0, 0x0, 0x1),
		clause(55.5, 0x1, 0x1, 0x0, 0x1),
		clause(71.5, 0x1, 0x1, 0x1, 0x1),
		clause(87.5, 0x9, 0x1, 0x1, 0x1),
		clause(103.5, 0x9, 0x1, 0x1, 0x9),
		clause(119.5, 0x9, 0x9, 0x1, 0x9),
		clause(135.5, 0x9, 0x9, 0x9, 0x9),
		clause(151.5, 0xb, 0x9, 0x9, 0x9),
		clause(167.5, 0xb, 0x9, 0x9, 0xb),
		clause(183.5, 0xb, 0xb, 0x9, 0xb),
		clause(199.5, 0xb, 0xb, 0xb, 0xb),
		clause(215.5, 0xf, 0xb, 0xb, 0xb),
		clause(231.5, 0xf, 0xb, 0xb, 0xf),
		clause(247.5, 0xf, 0xf, 0xb, 0xf),
	)
}

// catalog returns freshly built entries so callers may not alias each
// other's functions.
func catalog() []device {
	return []device{
		{NVIDIAGeForceRTX3070, function(1, 2048, false,
			clause(253, 0x0),
			clause(767, 0x8),
			clause(1281.5, 0x9),
			clause(1795.5, 0xb),
		)},
		{IntelHDGraphics4400, function(1, 4, true,
			clause(0.5, 0x0),
			clause(1.5, 0x1),
			clause(2.5, 0x3),
			clause(3.5, 0x7),
		)},
		{AppleM1Pro, appleLike()},
		{ARMMaliG78, function(2, 16, false,
			clause(0.5, 0x0, 0x0, 0x0, 0x0),
			clause(1.5, 0x0, 0x8, 0x0, 0x0),
			clause(2.5, 0x1, 0x8, 0x0, 0x0),
			clause(3.5, 0x1, 0x8, 0x0, 0x1),
			clause(4.5, 0x1, 0x8, 0x8, 0x1),
			clause(5.5, 0x1, 0xa, 0x8, 0x1),
			clause(6.5, 0x5, 0xa, 0x8, 0x1),
			clause(7.5, 0x5, 0xa, 0x8, 0x5),
			clause(8.5, 0x5, 0xa, 0xa, 0x5),
			clause(9.5, 0x5, 0xe, 0xa, 0x5),
			clause(10.5, 0x7, 0xe, 0xa, 0x5),
			clause(11.5, 0x7, 0xe, 0xa, 0x7),
			clause(12.5, 0x7, 0xe, 0xe, 0x7),
			clause(13.5, 0x7, 0xf, 0xe, 0x7),
			clause(14.5, 0xf, 0xf, 0xe, 0x7),
			clause(15.5, 0xf, 0xf, 0xe, 0xf),
		)},
		{PowerVRRogueGE8300, appleLike()},
		// Thresholds are whole multiples of 1/32; every eighth step has no
		// pattern of its own.
		{AMDRadeonRX580, function(2, 32, false,
			clause(1, 0x0, 0x0, 0x0, 0x0),
			clause(2, 0x4, 0x0, 0x0, 0x0),
			clause(3, 0x2, 0x0, 0x0, 0x0),
			clause(4, 0x2, 0x0, 0x0, 0x4),
			clause(5, 0x1, 0x0, 0x0, 0x4),
			clause(6, 0x1, 0x4, 0x0, 0x4),
			clause(7, 0x1, 0x4, 0x0, 0x2),
			clause(9, 0x1, 0x4, 0x4, 0x2),
			clause(10, 0x5, 0x4, 0x4, 0x2),
			clause(11, 0x5, 0x2, 0x4, 0x2),
			clause(12, 0x5, 0x2, 0x4, 0x6),
			clause(13, 0x5, 0x2, 0x4, 0x5),
			clause(14, 0x5, 0x6, 0x4, 0x5),
			clause(15, 0x5, 0x6, 0x2, 0x5),
			clause(17, 0x5, 0x6, 0x6, 0x5),
			clause(18, 0xd, 0x6, 0x6, 0x5),
			clause(19, 0x7, 0x6, 0x6, 0x5),
			clause(20, 0x7, 0x6, 0x6, 0xd),
			clause(21, 0x7, 0x5, 0x6, 0xd),
			clause(22, 0x7, 0xd, 0x6, 0xd),
			clause(23, 0x7, 0xd, 0x6, 0x7),
			clause(25, 0x7, 0xd, 0xe, 0x7),
			clause(26, 0xf, 0xd, 0xe, 0x7),
			clause(27, 0xf, 0x7, 0xe, 0x7),
			clause(28, 0xf, 0x7, 0xe, 0xf),
			clause(29, 0xf, 0x7, 0xd, 0xf),
			clause(30, 0xf, 0xf, 0xd, 0xf),
			clause(31, 0xf, 0xf, 0x7, 0xf),
		)},
		{QualcommAdreno630, function(4, 255, false,
			clause(0.5, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0),
			clause(15.5, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x0, 0x0, 0x0, 0x0, 0x0),
			clause(31.5, 0x1, 0x0, 0x8, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x0, 0x1, 0x0, 0x0),
			clause(47.5, 0x2, 0x0, 0x1, 0x0, 0x0, 0x2, 0x0, 0x1, 0x4, 0x1, 0x8, 0x0, 0x0, 0x4, 0x0, 0x8),
			clause(63.5, 0x0, 0x2, 0x8, 0x1, 0x1, 0x4, 0x2, 0x8, 0x4, 0x2, 0x0, 0x2, 0x2, 0x0, 0x1, 0x4),
			clause(79.5, 0x4, 0x1, 0x2, 0x8, 0x8, 0x2, 0x1, 0x4, 0x2, 0x8, 0x4, 0x1, 0x1, 0x4, 0x8, 0x3),
			clause(95.5, 0x4, 0x9, 0x2, 0x5, 0x1, 0x4, 0x9, 0x2, 0x6, 0x1, 0x6, 0x8, 0x8, 0x2, 0x1, 0x4),
			clause(111.5, 0x2, 0x9, 0x4, 0x6, 0x9, 0x6, 0xa, 0x1, 0x6, 0x8, 0x4, 0x9, 0x9, 0x4, 0x9, 0x6),
			clause(127.5, 0x1, 0x6, 0x9, 0x6, 0x6, 0x9, 0x6, 0x9, 0x9, 0x6, 0x1, 0x6, 0x6, 0x9, 0x6, 0x9),
			clause(143.5, 0x6, 0x9, 0x6, 0x9, 0xd, 0x6, 0x9, 0x9, 0x6, 0x9, 0x6, 0xd, 0x9, 0x6, 0x9, 0x6),
			clause(159.5, 0x7, 0x9, 0xe, 0x9, 0x9, 0x7, 0x9, 0x6, 0xe, 0x9, 0x7, 0x9, 0x9, 0x6, 0x9, 0x6),
			clause(175.5, 0xe, 0x9, 0xe, 0x5, 0x7, 0xe, 0xd, 0xb, 0x6, 0x7, 0x9, 0xd, 0x9, 0xe, 0x7, 0xe),
			clause(191.5, 0xb, 0x6, 0xd, 0x7, 0xe, 0xd, 0x7, 0xb, 0xd, 0x7, 0xb, 0xe, 0x7, 0xb, 0xe, 0xd),
			clause(207.5, 0x7, 0xe, 0xf, 0xd, 0xb, 0x7, 0xd, 0xe, 0xe, 0xd, 0x7, 0xf, 0xf, 0xb, 0xe, 0x7),
			clause(223.5, 0xd, 0xf, 0xf, 0xb, 0xf, 0x7, 0xe, 0xf, 0xf, 0xb, 0xf, 0xe, 0xe, 0xd, 0x7, 0xf),
			clause(239.5, 0xf, 0xf, 0xf, 0xe, 0xf, 0xe, 0xf, 0xf, 0x7, 0xf, 0xf, 0xf, 0xf, 0xf, 0xd, 0xf),
			clause(254.5, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xb, 0xf, 0xf, 0xf, 0xf, 0xf),
		)},
	}
}
