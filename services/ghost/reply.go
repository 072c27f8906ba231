// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ghost

// AlignmentTier buckets a resonance score.
type AlignmentTier int

const (
	// TierLow is a score below 55.
	TierLow AlignmentTier = iota
	// TierMid is a score in [55,79].
	TierMid
	// TierHigh is a score of 80 or more.
	TierHigh
)

// IntensityBand buckets an intensity level.
type IntensityBand int

const (
	// BandCalm is an intensity below 70.
	BandCalm IntensityBand = iota
	// BandAggressive is an intensity in [70,84].
	BandAggressive
	// BandHot is an intensity of 85 or more.
	BandHot
)

// Tiers and Bands list every bucket, for exhaustive iteration.
var (
	Tiers = []AlignmentTier{TierLow, TierMid, TierHigh}
	Bands = []IntensityBand{BandCalm, BandAggressive, BandHot}
)

// TierFor returns the alignment tier of a score.
func TierFor(alignmentScore int) AlignmentTier {
	switch {
	case alignmentScore >= 80:
		return TierHigh
	case alignmentScore >= 55:
		return TierMid
	default:
		return TierLow
	}
}

// BandFor returns the intensity band of an intensity level.
func BandFor(intensity int) IntensityBand {
	switch {
	case intensity >= 85:
		return BandHot
	case intensity >= 70:
		return BandAggressive
	default:
		return BandCalm
	}
}

func (t AlignmentTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMid:
		return "mid"
	default:
		return "low"
	}
}

func (b IntensityBand) String() string {
	switch b {
	case BandHot:
		return "hot"
	case BandAggressive:
		return "aggressive"
	default:
		return "calm"
	}
}

// ReplyKey addresses one cell of the reply table.
type ReplyKey struct {
	Persona Persona
	Tier    AlignmentTier
	Band    IntensityBand
}

// Reply texts shared by several cells. Only FearfulAvoidant tells hot apart
// from aggressive outside the low tier; at low alignment every persona
// collapses calm and aggressive into one reply.
const (
	secureHighCalm       = "I appreciate you being clear. Let’s talk—what time works for a short check-in?"
	secureHighPressed    = "I can hear this matters. I want to understand, but I need us to stay respectful. What’s the specific request?"
	secureMidCalm        = "I hear you, and I want to get this right. Can you tell me what you need most right now?"
	secureMidPressed     = "I’m starting to feel some heat here. Can we slow down and restate this as what you noticed, how you feel, and what you’re asking for?"
	secureLowCool        = "That felt like a judgment. Can you rephrase as an observation and a request so I can respond?"
	secureLowHot         = "This is landing as blame/criticism and I’m shutting down a bit. I’m going to pause and come back when we can reframe it as an observation + request."
	avoidantHighCalm     = "I hear you. I can do a short check-in. What’s the one thing you want from me?"
	avoidantHighPressed  = "Ok. Keep it short. What’s the one request—and how much time will this take?"
	avoidantMidCalm      = "This feels like a lot. Can we schedule 10 minutes later instead of doing this right now?"
	avoidantMidPressed   = "This is starting to feel like pressure. I’m going to need space right now. If you can send one clear request with options, I’ll respond."
	avoidantLowCool      = "This feels like criticism. I’m stepping back. If you can keep it to an observation and a request, I’ll revisit."
	avoidantLowHot       = "No response. (Withdrawn — avoidant persona disengages under high pressure.)"
	anxiousHighCalm      = "Thank you for being clear. I want to reconnect too. Are we okay? Let’s talk tonight."
	anxiousHighPressed   = "Thank you for saying it plainly. I’m a little activated, but I want to stay connected—are we okay? When can we talk?"
	anxiousMidCalm       = "I’m getting nervous. Can you reassure me and say what you’re asking for?"
	anxiousMidPressed    = "I feel attacked and scared. Do you still want us? I need reassurance and a clear plan for when we’ll talk."
	anxiousLowCool       = "That’s landing as a judgment. Can you rephrase it gently and tell me what you need?"
	anxiousLowHot        = "I’m panicking a bit. This feels like you’re pulling away and blaming me. Please tell me we’re okay and what you want me to do."
	fearfulHighCalm      = "I appreciate you saying it clearly. I want to talk—can we do a short calm check-in and take breaks if either of us gets flooded?"
	fearfulHighAggressed = "I hear you. I want to work on this, but I’m feeling activated—can we slow down and keep it to one request?"
	fearfulHighHot       = "Thank you for being clear. I want to stay connected, but I’m getting scared and tense. Can we keep this gentle for 10 minutes and then pause if needed?"
	fearfulMidCalm       = "I’m trying to hear you, but I’m getting overwhelmed. Can you reassure me you want connection and then say the request?"
	fearfulMidAggressed  = "I’m starting to feel unsafe/defensive. Can we restate this as an observation + feeling + request, and agree on a time limit?"
	fearfulMidHot        = "I’m overwhelmed and on edge. I don’t want to fight—can you reassure me what you want between us and make one clear request?"
	fearfulLowCool       = "This is landing as criticism. I need a softer reframe (observation + feeling + need) and one doable request."
	fearfulLowHot        = "I’m shutting down and also panicking. I’m going to step back. If you can rephrase as an observation + feeling + request, I can re-engage later."
)

// replyTable holds every (persona, tier, band) cell. It is never written after
// initialisation.
var replyTable = map[ReplyKey]string{
	{PersonaSecure, TierHigh, BandCalm}:       secureHighCalm,
	{PersonaSecure, TierHigh, BandAggressive}: secureHighPressed,
	{PersonaSecure, TierHigh, BandHot}:        secureHighPressed,
	{PersonaSecure, TierMid, BandCalm}:        secureMidCalm,
	{PersonaSecure, TierMid, BandAggressive}:  secureMidPressed,
	{PersonaSecure, TierMid, BandHot}:         secureMidPressed,
	{PersonaSecure, TierLow, BandCalm}:        secureLowCool,
	{PersonaSecure, TierLow, BandAggressive}:  secureLowCool,
	{PersonaSecure, TierLow, BandHot}:         secureLowHot,

	{PersonaAvoidantDismissive, TierHigh, BandCalm}:       avoidantHighCalm,
	{PersonaAvoidantDismissive, TierHigh, BandAggressive}: avoidantHighPressed,
	{PersonaAvoidantDismissive, TierHigh, BandHot}:        avoidantHighPressed,
	{PersonaAvoidantDismissive, TierMid, BandCalm}:        avoidantMidCalm,
	{PersonaAvoidantDismissive, TierMid, BandAggressive}:  avoidantMidPressed,
	{PersonaAvoidantDismissive, TierMid, BandHot}:         avoidantMidPressed,
	{PersonaAvoidantDismissive, TierLow, BandCalm}:        avoidantLowCool,
	{PersonaAvoidantDismissive, TierLow, BandAggressive}:  avoidantLowCool,
	{PersonaAvoidantDismissive, TierLow, BandHot}:         avoidantLowHot,

	{PersonaAnxiousPreoccupied, TierHigh, BandCalm}:       anxiousHighCalm,
	{PersonaAnxiousPreoccupied, TierHigh, BandAggressive}: anxiousHighPressed,
	{PersonaAnxiousPreoccupied, TierHigh, BandHot}:        anxiousHighPressed,
	{PersonaAnxiousPreoccupied, TierMid, BandCalm}:        anxiousMidCalm,
	{PersonaAnxiousPreoccupied, TierMid, BandAggressive}:  anxiousMidPressed,
	{PersonaAnxiousPreoccupied, TierMid, BandHot}:         anxiousMidPressed,
	{PersonaAnxiousPreoccupied, TierLow, BandCalm}:        anxiousLowCool,
	{PersonaAnxiousPreoccupied, TierLow, BandAggressive}:  anxiousLowCool,
	{PersonaAnxiousPreoccupied, TierLow, BandHot}:         anxiousLowHot,

	{PersonaFearfulAvoidant, TierHigh, BandCalm}:       fearfulHighCalm,
	{PersonaFearfulAvoidant, TierHigh, BandAggressive}: fearfulHighAggressed,
	{PersonaFearfulAvoidant, TierHigh, BandHot}:        fearfulHighHot,
	{PersonaFearfulAvoidant, TierMid, BandCalm}:        fearfulMidCalm,
	{PersonaFearfulAvoidant, TierMid, BandAggressive}:  fearfulMidAggressed,
	{PersonaFearfulAvoidant, TierMid, BandHot}:         fearfulMidHot,
	{PersonaFearfulAvoidant, TierLow, BandCalm}:        fearfulLowCool,
	{PersonaFearfulAvoidant, TierLow, BandAggressive}:  fearfulLowCool,
	{PersonaFearfulAvoidant, TierLow, BandHot}:         fearfulLowHot,
}

// ReplyFor returns the scripted reply stored in one table cell.
func ReplyFor(key ReplyKey) (string, bool) {
	reply, ok := replyTable[key]
	return reply, ok
}

// SelectReply picks the scripted reply for a persona at the given alignment
// score and intensity.
//
// # Description
//
// The lookup is total: every persona has a cell for every tier and band. An
// out-of-range Persona value falls back to the DefaultPersona row.
func SelectReply(p Persona, alignmentScore, intensity int) string {
	key := ReplyKey{Persona: p, Tier: TierFor(alignmentScore), Band: BandFor(intensity)}
	if reply, ok := replyTable[key]; ok {
		return reply
	}
	key.Persona = DefaultPersona
	return replyTable[key]
}
