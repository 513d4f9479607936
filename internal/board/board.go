package board

const (
	Rows = 6
	Cols = 7

	winLength = 4
)

// Cell holds the seat occupying a position, or Empty.
type Cell string

const Empty Cell = ""

// Board is a fixed 6x7 grid, row 0 at the top. Gravity is enforced by
// construction: pieces only enter through Drop, which fills bottom-up.
type Board [Rows][Cols]Cell

func New() Board { return Board{} }

// ColumnPlayable reports whether a piece can be dropped in col.
// Out-of-range columns are unplayable rather than an error.
func (b Board) ColumnPlayable(col int) bool {
	if col < 0 || col >= Cols {
		return false
	}
	return b[0][col] == Empty
}

// Drop places seat in the lowest empty cell of col and returns the row it
// landed in. ok is false when the column is full or out of range; callers
// are expected to check ColumnPlayable first, so a false return indicates
// a logic error upstream, not a user-facing condition.
func (b *Board) Drop(col int, seat Cell) (row int, ok bool) {
	if col < 0 || col >= Cols {
		return 0, false
	}
	for r := Rows - 1; r >= 0; r-- {
		if b[r][col] == Empty {
			b[r][col] = seat
			return r, true
		}
	}
	return 0, false
}

// Full reports whether every cell is occupied. Checking the top row is
// enough: a column with any empty cell has an empty top cell.
func (b Board) Full() bool {
	for c := 0; c < Cols; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}

type Outcome int

const (
	Ongoing Outcome = iota
	Win
	Draw
)

type Result struct {
	Outcome Outcome
	Winner  Cell // set only for Win
}

var directions = [4][2]int{
	{0, 1},  // right
	{1, 0},  // down
	{1, 1},  // down-right
	{1, -1}, // down-left
}

// Evaluate scans the whole grid for a terminal position. Any run of four is
// enough to declare the win; the scan makes no attempt to find the line that
// was completed first.
func (b Board) Evaluate() Result {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			seat := b[r][c]
			if seat == Empty {
				continue
			}
			for _, d := range directions {
				if b.runLength(r, c, d[0], d[1], seat) >= winLength {
					return Result{Outcome: Win, Winner: seat}
				}
			}
		}
	}
	if b.Full() {
		return Result{Outcome: Draw}
	}
	return Result{Outcome: Ongoing}
}

func (b Board) runLength(r, c, dr, dc int, seat Cell) int {
	n := 0
	for r >= 0 && r < Rows && c >= 0 && c < Cols && b[r][c] == seat {
		n++
		r += dr
		c += dc
	}
	return n
}

// Grid is the wire form of the board: row 0 on top, nil for empty cells.
type Grid [Rows][Cols]*string

func (b Board) Grid() Grid {
	var g Grid
	for r := range b {
		for c := range b[r] {
			if b[r][c] != Empty {
				s := string(b[r][c])
				g[r][c] = &s
			}
		}
	}
	return g
}
