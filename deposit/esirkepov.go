package deposit

import (
	"log"
	"math"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/shape"
)

// Esirkepov deposits the current of the first n particles onto jx, jy and jz
// with the charge-conserving Esirkepov algorithm: the current along each axis
// is the discrete antiderivative of the charge-density difference between the
// old position (one full step back) and the current position. The deposited
// current satisfies (rho_new - rho_old)/dt + div J = 0 exactly for the
// chosen interpolation order.
//
// The grids are addressed in node-index space: the three current components
// share the index origin of the new-position stencil.
func Esirkepov(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	switch p.Geom {
	case geom.Cart3D:
		esirkepov3D(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	case geom.Cart2D:
		esirkepov2D(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	case geom.RZ:
		esirkepovRZ(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	default:
		log.Fatalf("Unrecognized geometry, %d.", p.Geom)
	}
}

func zero(xs []float64) {
	for i := range xs {
		xs[i] = 0
	}
}

// shiftBounds trims the scatter loop to the union of the old and new
// stencils: the aligned arrays have one spare slot at each end, and at most
// one of them holds weight.
func shiftBounds(iOld, iNew int) (dl, du int) {
	dl, du = 1, 1
	if iOld < iNew {
		dl = 0
	}
	if iOld > iNew {
		du = 0
	}
	return dl, du
}

func esirkepov3D(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dt := p.Dt
	dxi, dyi, dzi := 1/p.Dx[0], 1/p.Dx[1], 1/p.Dx[2]
	dtsdx0, dtsdy0, dtsdz0 := dt*dxi, dt*dyi, dt*dzi
	invdtdx := 1 / (dt * p.Dx[1] * p.Dx[2])
	invdtdy := 1 / (dt * p.Dx[0] * p.Dx[2])
	invdtdz := 1 / (dt * p.Dx[0] * p.Dx[1])

	size := order + 3
	sxNew, sxOld := make([]float64, size), make([]float64, size)
	syNew, syOld := make([]float64, size), make([]float64, size)
	szNew, szOld := make([]float64, size), make([]float64, size)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}
		wqx, wqy, wqz := wq*invdtdx, wq*invdtdy, wq*invdtdz

		xNew := (x[ip] - p.Min[0]) * dxi
		xOld := xNew - dtsdx0*ux[ip]*gi
		yNew := (y[ip] - p.Min[1]) * dyi
		yOld := yNew - dtsdy0*uy[ip]*gi
		zNew := (z[ip] - p.Min[2]) * dzi
		zOld := zNew - dtsdz0*uz[ip]*gi

		zero(sxNew)
		zero(sxOld)
		zero(syNew)
		zero(syOld)
		zero(szNew)
		zero(szOld)

		// New weights go in slots 1..order+1 so the shifted old weights
		// share the same index origin, iNew-1.
		iNew := shape.Factor(sxNew[1:], xNew, order)
		iOld := shape.ShiftedFactor(sxOld, xOld, iNew, order)
		jNew := shape.Factor(syNew[1:], yNew, order)
		jOld := shape.ShiftedFactor(syOld, yOld, jNew, order)
		kNew := shape.Factor(szNew[1:], zNew, order)
		kOld := shape.ShiftedFactor(szOld, zOld, kNew, order)

		dil, diu := shiftBounds(iOld, iNew)
		djl, dju := shiftBounds(jOld, jNew)
		dkl, dku := shiftBounds(kOld, kNew)

		for k := dkl; k <= order+2-dku; k++ {
			for j := djl; j <= order+2-dju; j++ {
				sdxi := 0.0
				for i := dil; i <= order+1-diu; i++ {
					sdxi += wqx * (sxOld[i] - sxNew[i]) *
						((syNew[j]+0.5*(syOld[j]-syNew[j]))*szNew[k] +
							(0.5*syNew[j]+1.0/3.0*(syOld[j]-syNew[j]))*(szOld[k]-szNew[k]))
					jx.AtomicAdd(iNew-1+i, jNew-1+j, kNew-1+k, 0, sdxi)
				}
			}
		}
		for k := dkl; k <= order+2-dku; k++ {
			for i := dil; i <= order+2-diu; i++ {
				sdyj := 0.0
				for j := djl; j <= order+1-dju; j++ {
					sdyj += wqy * (syOld[j] - syNew[j]) *
						((szNew[k]+0.5*(szOld[k]-szNew[k]))*sxNew[i] +
							(0.5*szNew[k]+1.0/3.0*(szOld[k]-szNew[k]))*(sxOld[i]-sxNew[i]))
					jy.AtomicAdd(iNew-1+i, jNew-1+j, kNew-1+k, 0, sdyj)
				}
			}
		}
		for j := djl; j <= order+2-dju; j++ {
			for i := dil; i <= order+2-diu; i++ {
				sdzk := 0.0
				for k := dkl; k <= order+1-dku; k++ {
					sdzk += wqz * (szOld[k] - szNew[k]) *
						((sxNew[i]+0.5*(sxOld[i]-sxNew[i]))*syNew[j] +
							(0.5*sxNew[i]+1.0/3.0*(sxOld[i]-sxNew[i]))*(syOld[j]-syNew[j]))
					jz.AtomicAdd(iNew-1+i, jNew-1+j, kNew-1+k, 0, sdzk)
				}
			}
		}
	}
}

func esirkepov2D(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dt := p.Dt
	dxi, dzi := 1/p.Dx[0], 1/p.Dx[2]
	dtsdx0, dtsdz0 := dt*dxi, dt*dzi
	invdtdx := 1 / (dt * p.Dx[2])
	invdtdz := 1 / (dt * p.Dx[0])
	invvol := 1 / (p.Dx[0] * p.Dx[2])

	size := order + 3
	sxNew, sxOld := make([]float64, size), make([]float64, size)
	szNew, szOld := make([]float64, size), make([]float64, size)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}
		wqx, wqz := wq*invdtdx, wq*invdtdz
		vy := uy[ip] * gi

		xNew := (x[ip] - p.Min[0]) * dxi
		xOld := xNew - dtsdx0*ux[ip]*gi
		zNew := (z[ip] - p.Min[2]) * dzi
		zOld := zNew - dtsdz0*uz[ip]*gi

		zero(sxNew)
		zero(sxOld)
		zero(szNew)
		zero(szOld)

		iNew := shape.Factor(sxNew[1:], xNew, order)
		iOld := shape.ShiftedFactor(sxOld, xOld, iNew, order)
		kNew := shape.Factor(szNew[1:], zNew, order)
		kOld := shape.ShiftedFactor(szOld, zOld, kNew, order)

		dil, diu := shiftBounds(iOld, iNew)
		dkl, dku := shiftBounds(kOld, kNew)

		for k := dkl; k <= order+2-dku; k++ {
			sdxi := 0.0
			for i := dil; i <= order+1-diu; i++ {
				sdxi += wqx * (sxOld[i] - sxNew[i]) *
					(szNew[k] + 0.5*(szOld[k]-szNew[k]))
				jx.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdxi)
			}
		}
		// The out-of-plane current has no antiderivative structure; it is
		// deposited directly with the time-centered weights.
		for k := dkl; k <= order+2-dku; k++ {
			for i := dil; i <= order+2-diu; i++ {
				sdyj := wq * vy * invvol *
					((szNew[k]+0.5*(szOld[k]-szNew[k]))*sxNew[i] +
						(0.5*szNew[k]+1.0/3.0*(szOld[k]-szNew[k]))*(sxOld[i]-sxNew[i]))
				jy.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdyj)
			}
		}
		for i := dil; i <= order+2-diu; i++ {
			sdzk := 0.0
			for k := dkl; k <= order+1-dku; k++ {
				sdzk += wqz * (szOld[k] - szNew[k]) *
					(sxNew[i] + 0.5*(sxOld[i]-sxNew[i]))
				jz.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdzk)
			}
		}
	}
}

func esirkepovRZ(
	jr, jt, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dt := p.Dt
	dri, dzi := 1/p.Dx[0], 1/p.Dx[2]
	dtsdz0 := dt * dzi
	invdtdr := 1 / (dt * p.Dx[2])
	invdtdz := 1 / (dt * p.Dx[0])
	invvol := 1 / (p.Dx[0] * p.Dx[2])

	size := order + 3
	srNew, srOld := make([]float64, size), make([]float64, size)
	szNew, szOld := make([]float64, size), make([]float64, size)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}
		wqr, wqz := wq*invdtdr, wq*invdtdz

		// New, half-step and old positions in the plane; the azimuthal
		// phase at each is tracked as a complex unit factor.
		xMid, yMid := x[ip]-0.5*dt*ux[ip]*gi, y[ip]-0.5*dt*uy[ip]*gi
		xOld, yOld := x[ip]-dt*ux[ip]*gi, y[ip]-dt*uy[ip]*gi
		rNew := math.Sqrt(x[ip]*x[ip] + y[ip]*y[ip])
		rMid := math.Sqrt(xMid*xMid + yMid*yMid)
		rOld := math.Sqrt(xOld*xOld + yOld*yOld)

		cosNew, sinNew := 1.0, 0.0
		if rNew > 0 {
			cosNew, sinNew = x[ip]/rNew, y[ip]/rNew
		}
		cosMid, sinMid := 1.0, 0.0
		if rMid > 0 {
			cosMid, sinMid = xMid/rMid, yMid/rMid
		}
		cosOld, sinOld := 1.0, 0.0
		if rOld > 0 {
			cosOld, sinOld = xOld/rOld, yOld/rOld
		}

		rfNew := (rNew - p.Min[0]) * dri
		rfOld := (rOld - p.Min[0]) * dri
		zNew := (z[ip] - p.Min[2]) * dzi
		zOld := zNew - dtsdz0*uz[ip]*gi

		vt := (-ux[ip]*sinMid + uy[ip]*cosMid) * gi

		zero(srNew)
		zero(srOld)
		zero(szNew)
		zero(szOld)

		iNew := shape.Factor(srNew[1:], rfNew, order)
		iOld := shape.ShiftedFactor(srOld, rfOld, iNew, order)
		kNew := shape.Factor(szNew[1:], zNew, order)
		kOld := shape.ShiftedFactor(szOld, zOld, kNew, order)

		dil, diu := shiftBounds(iOld, iNew)
		dkl, dku := shiftBounds(kOld, kNew)

		for k := dkl; k <= order+2-dku; k++ {
			sdri := 0.0
			for i := dil; i <= order+1-diu; i++ {
				sdri += wqr * (srOld[i] - srNew[i]) *
					(szNew[k] + 0.5*(szOld[k]-szNew[k]))
				jr.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdri)

				xyRe, xyIm := cosMid, sinMid
				for m := 1; m < p.NModes; m++ {
					jr.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m-1, 2*sdri*xyRe)
					jr.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m, 2*sdri*xyIm)
					xyRe, xyIm = xyRe*cosMid-xyIm*sinMid, xyRe*sinMid+xyIm*cosMid
				}
			}
		}
		for k := dkl; k <= order+2-dku; k++ {
			for i := dil; i <= order+2-diu; i++ {
				sdti := wq * vt * invvol *
					((szNew[k]+0.5*(szOld[k]-szNew[k]))*srNew[i] +
						(0.5*szNew[k]+1.0/3.0*(szOld[k]-szNew[k]))*(srOld[i]-srNew[i]))
				jt.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdti)

				newRe, newIm := cosNew, sinNew
				midRe, midIm := cosMid, sinMid
				oldRe, oldIm := cosOld, sinOld
				for m := 1; m < p.NModes; m++ {
					// The azimuthal mode-m current follows from charge
					// conservation in theta: J_theta,m is proportional to
					// the phase difference between the old, mid and new
					// angles, with a factor -2i r wq/(m dt dz) and the mode
					// normalization of 2.
					c := 2 * (float64(iNew-1+i) + p.Min[0]*dri) * wq * invdtdr / float64(m)
					aRe := srNew[i]*szNew[k]*(newRe-midRe) +
						srOld[i]*szOld[k]*(midRe-oldRe)
					aIm := srNew[i]*szNew[k]*(newIm-midIm) +
						srOld[i]*szOld[k]*(midIm-oldIm)
					// -i * (aRe + i aIm) = aIm - i aRe.
					jt.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m-1, c*aIm)
					jt.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m, -c*aRe)

					newRe, newIm = newRe*cosNew-newIm*sinNew, newRe*sinNew+newIm*cosNew
					midRe, midIm = midRe*cosMid-midIm*sinMid, midRe*sinMid+midIm*cosMid
					oldRe, oldIm = oldRe*cosOld-oldIm*sinOld, oldRe*sinOld+oldIm*cosOld
				}
			}
		}
		for i := dil; i <= order+2-diu; i++ {
			sdzk := 0.0
			for k := dkl; k <= order+1-dku; k++ {
				sdzk += wqz * (szOld[k] - szNew[k]) *
					(srNew[i] + 0.5*(srOld[i]-srNew[i]))
				jz.AtomicAdd(iNew-1+i, kNew-1+k, 0, 0, sdzk)

				xyRe, xyIm := cosMid, sinMid
				for m := 1; m < p.NModes; m++ {
					jz.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m-1, 2*sdzk*xyRe)
					jz.AtomicAdd(iNew-1+i, kNew-1+k, 0, 2*m, 2*sdzk*xyIm)
					xyRe, xyIm = xyRe*cosMid-xyIm*sinMid, xyRe*sinMid+xyIm*cosMid
				}
			}
		}
	}
}
