package layout

import (
	"math"
	"math/rand/v2"

	"github.com/beepf/topoconsole/pkg/graph"
)

// Simulation constants.
const (
	alphaMin        = 0.001
	velocityDecay   = 0.6 // fraction of velocity kept per tick
	collideStrength = 0.7
	minDistance2    = 1.0
	defaultLinkDist = 30.0
	initialRadius   = 10.0
)

type body struct {
	x, y   float64
	vx, vy float64
	mass   float64
	charge float64
	radius float64
}

type link struct {
	src, dst int
	bias     float64 // share of the correction applied to dst
	strength float64
	distance float64
}

// computeForce runs a d3-style simulation with many-body repulsion,
// spring links, optional gravity toward a center and optional collision.
//
// Gravity acts independently of mass. Every other force is divided by the
// node's mass, so heavy nodes drift less.
func computeForce(g graph.Graph, cfg Config, opts Options) Positions {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	bodies := initBodies(g, cfg, rng)
	links := initLinks(g, cfg)

	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	alphaDecay := 1 - math.Pow(alphaMin, 1/float64(iterations))

	center := Point{X: opts.Width / 2, Y: opts.Height / 2}
	if cfg.Center != nil {
		center = *cfg.Center
	}

	alpha := 1.0
	for i := 0; i < iterations; i++ {
		alpha += (0 - alpha) * alphaDecay
		applyLinks(bodies, links, alpha, rng)
		applyManyBody(bodies, alpha, rng)
		if cfg.Gravity > 0 {
			applyGravity(bodies, center, cfg.Gravity, alpha)
		}
		if cfg.PreventOverlap {
			applyCollision(bodies, rng)
		}
		for j := range bodies {
			b := &bodies[j]
			b.vx *= velocityDecay
			b.vy *= velocityDecay
			b.x += b.vx
			b.y += b.vy
		}
	}

	pos := make(Positions, len(bodies))
	for i, n := range g.Nodes {
		pos[n.ID] = Point{X: bodies[i].x, Y: bodies[i].y}
	}
	if cfg.Center == nil {
		translate(g, pos, center)
	}
	return pos
}

func initBodies(g graph.Graph, cfg Config, rng *rand.Rand) []body {
	bodies := make([]body, len(g.Nodes))
	for i, n := range g.Nodes {
		b := body{mass: 1, charge: -30}
		if cfg.NodeMass != nil {
			if m := cfg.NodeMass(n); m > 0 {
				b.mass = m
			}
		}
		if cfg.NodeStrength != nil {
			b.charge = cfg.NodeStrength(n)
		}

		var diameter float64
		if cfg.NodeDiameter != nil {
			diameter = cfg.NodeDiameter(n)
		} else {
			w, h := Box(n)
			diameter = max(w, h)
		}
		b.radius = diameter/2 + cfg.NodeSpacing/2

		if cfg.InitialPosition != nil {
			p := cfg.InitialPosition(n, rng)
			b.x, b.y = p.X, p.Y
		} else {
			// Phyllotaxis arrangement.
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * math.Pi * (3 - math.Sqrt(5))
			b.x, b.y = r*math.Cos(a), r*math.Sin(a)
		}
		bodies[i] = b
	}
	return bodies
}

func initLinks(g graph.Graph, cfg Config) []link {
	idx := graph.NewIndex(g)
	count := make([]int, len(g.Nodes))
	var links []link
	for _, e := range g.Edges {
		s, okS := idx.Lookup(e.Source)
		t, okT := idx.Lookup(e.Target)
		if !okS || !okT || s == t {
			continue
		}
		count[s]++
		count[t]++
		links = append(links, link{src: s, dst: t})
	}

	for i := range links {
		l := &links[i]
		cs, ct := float64(count[l.src]), float64(count[l.dst])
		l.bias = cs / (cs + ct)
		l.strength = cfg.EdgeStrength
		if l.strength <= 0 {
			l.strength = 1 / min(cs, ct)
		}
		l.distance = cfg.LinkDistance
		if l.distance <= 0 {
			l.distance = defaultLinkDist
		}
	}
	return links
}

func applyLinks(bodies []body, links []link, alpha float64, rng *rand.Rand) {
	for _, l := range links {
		s, t := &bodies[l.src], &bodies[l.dst]
		x := t.x + t.vx - s.x - s.vx
		y := t.y + t.vy - s.y - s.vy
		if x == 0 {
			x = jiggle(rng)
		}
		if y == 0 {
			y = jiggle(rng)
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - l.distance) / d * alpha * l.strength
		x, y = x*k, y*k
		t.vx -= x * l.bias / t.mass
		t.vy -= y * l.bias / t.mass
		s.vx += x * (1 - l.bias) / s.mass
		s.vy += y * (1 - l.bias) / s.mass
	}
}

func applyManyBody(bodies []body, alpha float64, rng *rand.Rand) {
	for i := range bodies {
		bi := &bodies[i]
		for j := range bodies {
			if i == j {
				continue
			}
			bj := &bodies[j]
			x, y := bj.x-bi.x, bj.y-bi.y
			if x == 0 {
				x = jiggle(rng)
			}
			if y == 0 {
				y = jiggle(rng)
			}
			l := x*x + y*y
			if l < minDistance2 {
				l = math.Sqrt(minDistance2 * l)
			}
			w := bj.charge * alpha / l / bi.mass
			bi.vx += x * w
			bi.vy += y * w
		}
	}
}

func applyGravity(bodies []body, c Point, strength, alpha float64) {
	for i := range bodies {
		b := &bodies[i]
		b.vx += (c.X - b.x) * strength * alpha
		b.vy += (c.Y - b.y) * strength * alpha
	}
}

func applyCollision(bodies []body, rng *rand.Rand) {
	for i := range bodies {
		bi := &bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			bj := &bodies[j]
			r := bi.radius + bj.radius
			x := bi.x + bi.vx - bj.x - bj.vx
			y := bi.y + bi.vy - bj.y - bj.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = jiggle(rng)
				l += x * x
			}
			if y == 0 {
				y = jiggle(rng)
				l += y * y
			}
			d := math.Sqrt(l)
			k := (r - d) / d * collideStrength
			x, y = x*k, y*k
			ai, aj := bi.radius*bi.radius, bj.radius*bj.radius
			share := aj / (ai + aj)
			bi.vx += x * share / bi.mass
			bi.vy += y * share / bi.mass
			bj.vx -= x * (1 - share) / bj.mass
			bj.vy -= y * (1 - share) / bj.mass
		}
	}
}

func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}
