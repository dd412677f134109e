package sim

import (
	"container/heap"
	"math"

	"github.com/Garsondee/standoff/internal/engage"
)

// cellSize is the nav grid resolution in world units.
const cellSize = 0.5

// Rect is an axis-aligned obstacle footprint on the ground plane.
type Rect struct {
	X, Z, W, D float64
}

// Contains reports whether the ground point (x, z) is inside r.
func (r Rect) Contains(x, z float64) bool {
	return x >= r.X && x < r.X+r.W && z >= r.Z && z < r.Z+r.D
}

// NavGrid is a ground-plane walkability grid where true = blocked.
type NavGrid struct {
	cols    int
	rows    int
	blocked []bool
}

// NewNavGrid builds a walkability grid from the map extent and buildings.
// Each cell that overlaps a building grown by clearance is blocked.
func NewNavGrid(width, depth float64, buildings []Rect, clearance float64) *NavGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))
	ng := &NavGrid{
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}

	for _, b := range buildings {
		x0 := b.X - clearance
		z0 := b.Z - clearance
		x1 := b.X + b.W + clearance
		z1 := b.Z + b.D + clearance

		cMinX := max(0, int(math.Floor(x0/cellSize)))
		cMinZ := max(0, int(math.Floor(z0/cellSize)))
		cMaxX := min(cols-1, int(math.Ceil(x1/cellSize))-1)
		cMaxZ := min(rows-1, int(math.Ceil(z1/cellSize))-1)

		for cz := cMinZ; cz <= cMaxZ; cz++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				ng.blocked[cz*cols+cx] = true
			}
		}
	}
	return ng
}

// IsBlocked returns true if the cell at (cx, cz) is not walkable.
func (ng *NavGrid) IsBlocked(cx, cz int) bool {
	if cx < 0 || cz < 0 || cx >= ng.cols || cz >= ng.rows {
		return true
	}
	return ng.blocked[cz*ng.cols+cx]
}

// BlockedAt reports whether the world point lies in a blocked cell.
func (ng *NavGrid) BlockedAt(p engage.Vec3) bool {
	cx, cz := WorldToCell(p)
	return ng.IsBlocked(cx, cz)
}

func (ng *NavGrid) Size() (cols, rows int) { return ng.cols, ng.rows }

// WorldToCell converts a world point to grid cell coordinates.
func WorldToCell(p engage.Vec3) (int, int) {
	return int(math.Floor(p.X / cellSize)), int(math.Floor(p.Z / cellSize))
}

// CellToWorld converts grid cell coordinates to the cell's world center.
func CellToWorld(cx, cz int) engage.Vec3 {
	return engage.Vec3{
		X: float64(cx)*cellSize + cellSize/2,
		Z: float64(cz)*cellSize + cellSize/2,
	}
}

// SampleNavigable returns p when it is walkable, otherwise the nearest
// walkable cell center within radius. Y is carried over from p.
func (ng *NavGrid) SampleNavigable(p engage.Vec3, radius float64) (engage.Vec3, bool) {
	if !p.IsFinite() {
		return engage.Vec3{}, false
	}
	cx, cz := WorldToCell(p)
	if !ng.IsBlocked(cx, cz) {
		return p, true
	}
	reach := int(math.Ceil(radius / cellSize))
	best := engage.Vec3{}
	bestD := math.Inf(1)
	for ring := 1; ring <= reach; ring++ {
		for dz := -ring; dz <= ring; dz++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dz)) != ring || ng.IsBlocked(cx+dx, cz+dz) {
					continue
				}
				c := CellToWorld(cx+dx, cz+dz)
				if d := p.PlanarDistanceTo(c); d <= radius && d < bestD {
					best, bestD = c, d
				}
			}
		}
		// The nearest cell in a ring can still lose to one in the next ring,
		// but never to one two rings out.
		if !math.IsInf(bestD, 1) && float64(ring+1)*cellSize > bestD {
			break
		}
	}
	if math.IsInf(bestD, 1) {
		return engage.Vec3{}, false
	}
	best.Y = p.Y
	return best, true
}

// LineClear walks the segment a->b at half-cell steps and reports whether
// every sample is walkable.
func (ng *NavGrid) LineClear(a, b engage.Vec3) bool {
	d := a.PlanarDistanceTo(b)
	steps := int(math.Ceil(d / (cellSize / 2)))
	for i := 0; i <= steps; i++ {
		t := 1.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		p := engage.Vec3{X: a.X + (b.X-a.X)*t, Z: a.Z + (b.Z-a.Z)*t}
		if ng.BlockedAt(p) {
			return false
		}
	}
	return true
}

// --- A* pathfinding ---

type pathNode struct {
	cx, cz int
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath returns world waypoints from start to goal, ending exactly at goal.
// A direct line of sight short-circuits the search. Returns nil if no path
// exists.
func (ng *NavGrid) FindPath(start, goal engage.Vec3) []engage.Vec3 {
	scx, scz := WorldToCell(start)
	gcx, gcz := WorldToCell(goal)
	if ng.IsBlocked(gcx, gcz) {
		return nil
	}
	if ng.LineClear(start, goal) {
		return []engage.Vec3{goal}
	}
	if ng.IsBlocked(scx, scz) {
		// Standing on a blocked cell (pushed into clearance): start from the
		// nearest walkable one.
		p, ok := ng.SampleNavigable(start, 2)
		if !ok {
			return nil
		}
		scx, scz = WorldToCell(p)
	}

	key := func(cx, cz int) int { return cz*ng.cols + cx }
	heuristic := func(ax, az, bx, bz int) float64 {
		dx := math.Abs(float64(ax - bx))
		dz := math.Abs(float64(az - bz))
		return dx + dz + (math.Sqrt2-2)*math.Min(dx, dz)
	}

	first := &pathNode{cx: scx, cz: scz, g: 0, h: heuristic(scx, scz, gcx, gcz)}
	ol := &openList{first}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(scx, scz)] = first

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cx == gcx && cur.cz == gcz {
			return ng.smooth(start, buildPath(cur), goal)
		}
		k := key(cur.cx, cur.cz)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, nz := cur.cx+d[0], cur.cz+d[1]
			if ng.IsBlocked(nx, nz) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if ng.IsBlocked(cur.cx+d[0], cur.cz) || ng.IsBlocked(cur.cx, cur.cz+d[1]) {
					continue
				}
			}
			nk := key(nx, nz)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			g := cur.g + cost
			if prev, ok := best[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{cx: nx, cz: nz, g: g, h: heuristic(nx, nz, gcx, gcz), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

func buildPath(end *pathNode) []engage.Vec3 {
	var cells [][2]int
	for n := end; n != nil; n = n.parent {
		cells = append(cells, [2]int{n.cx, n.cz})
	}
	// Reverse
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	path := make([]engage.Vec3, len(cells))
	for i, c := range cells {
		path[i] = CellToWorld(c[0], c[1])
	}
	return path
}

// smooth drops cell waypoints that are visible from the previous kept point
// and replaces the final cell center with the exact goal.
func (ng *NavGrid) smooth(start engage.Vec3, cells []engage.Vec3, goal engage.Vec3) []engage.Vec3 {
	if len(cells) == 0 {
		return nil
	}
	cells[len(cells)-1] = goal
	out := make([]engage.Vec3, 0, len(cells))
	from := start
	for i := 0; i < len(cells); {
		j := len(cells) - 1
		for j > i && !ng.LineClear(from, cells[j]) {
			j--
		}
		out = append(out, cells[j])
		from = cells[j]
		i = j + 1
	}
	for i := range out {
		out[i].Y = goal.Y
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
