package game

// AIPlayer returns the AI-controlled player.
func (d *Document) AIPlayer() (*Player, bool) {
	for i := range d.Players {
		if d.Players[i].IsAI {
			return &d.Players[i], true
		}
	}
	return nil, false
}

// Player returns the player with the given id.
func (d *Document) Player(id string) (*Player, bool) {
	for i := range d.Players {
		if d.Players[i].ID == id {
			return &d.Players[i], true
		}
	}
	return nil, false
}

// PlayerIDs returns all player ids in roster order.
func (d *Document) PlayerIDs() []string {
	ids := make([]string, len(d.Players))
	for i, p := range d.Players {
		ids[i] = p.ID
	}
	return ids
}

// IsAITurn reports whether the AI is the active player.
func (d *Document) IsAITurn() bool {
	ai, ok := d.AIPlayer()
	return ok && d.TurnState.CurrentPlayerID == ai.ID
}

func requireAI(d *Document) (*Player, error) {
	ai, ok := d.AIPlayer()
	if !ok {
		return nil, notFound("No AI player found in this session")
	}
	return ai, nil
}

// requireAITurn is the single turn-owner check used by every movement and
// turn mutation.
func requireAITurn(d *Document) (*Player, error) {
	ai, err := requireAI(d)
	if err != nil {
		return nil, err
	}
	if d.TurnState.CurrentPlayerID != ai.ID {
		current := d.TurnState.CurrentPlayerID
		if p, ok := d.Player(current); ok {
			current = p.Name
		}
		return nil, precondition("Not AI's turn").
			With("currentPlayer", current).
			With("aiPlayerId", ai.ID)
	}
	return ai, nil
}

// requireMovement checks the turn owner and the movement budget.
func requireMovement(d *Document) (*Player, error) {
	ai, err := requireAITurn(d)
	if err != nil {
		return nil, err
	}
	if d.TurnState.MovementRemaining <= 0 {
		return nil, precondition("No movement remaining").With("movementRemaining", 0)
	}
	return ai, nil
}

// currentRoom returns the room the player stands in.
func currentRoom(d *Document, p *Player) (*PlacedRoom, error) {
	r, ok := d.Map.Room(p.Position.RoomID)
	if !ok {
		return nil, notFound("Current room not found: %s", p.Position.RoomID)
	}
	return r, nil
}

func (p *Player) moveTo(r *PlacedRoom) {
	p.Position = Position{Floor: r.Floor, RoomID: r.InstanceID, X: r.X, Y: r.Y}
}
