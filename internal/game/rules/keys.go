package rules

// Payload keys shared by actions, handlers and observers.
const (
	KeySkillOwnerID = "skillOwnerId"
	KeySkillNo      = "skillNo"
	KeySourceID     = "sourceId"
	KeyTargetID     = "targetId"
	KeySelectedID   = "selectedId"
	KeyTeamID       = "teamId"
	KeyNum          = "num"
	KeyReason       = "reason"
	KeyBuff         = "buff"
	KeyDamage       = "damage"
	KeyCritical     = "critical"
	KeyRemainHp     = "remainHp"
	KeyIsDead       = "isDead"
	KeyHit          = "hit"
)
