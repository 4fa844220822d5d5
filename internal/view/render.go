package view

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// DOT returns the view in Graphviz DOT format with node positions pinned, for
// rendering with `neato -n`.
func DOT(v View) string {
	var b strings.Builder
	b.WriteString("digraph relmap {\n")
	b.WriteString("  node [shape=circle, style=filled, fontsize=10];\n")
	b.WriteString("  edge [fontsize=9];\n\n")

	for _, n := range v.Nodes {
		// Graphviz y grows upward.
		b.WriteString(fmt.Sprintf("  %q [label=%q, pos=\"%s,%s!\", width=%s, fillcolor=%q, color=%q];\n",
			n.ID, n.Name, num(n.X), num(-n.Y), num(n.Radius*2/72), n.Fill, n.Stroke))
	}

	b.WriteString("\n")
	for _, e := range v.Edges {
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q, color=%q];\n", e.From, e.To, e.DisplayLabel, e.Stroke))
	}

	b.WriteString("}\n")
	return b.String()
}

// HTML returns a self-contained page drawing the view on a canvas.
func HTML(v View, title string) string {
	nodesJSON, _ := json.Marshal(v.Nodes)
	edgesJSON, _ := json.Marshal(v.Edges)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:#ffffff;color:#374151;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;overflow:hidden}
canvas{display:block}
#info{position:fixed;top:16px;left:16px;z-index:10;background:rgba(255,255,255,0.92);border:1px solid #e5e7eb;border-radius:12px;padding:16px 20px;font-size:13px;min-width:200px}
#info h2{color:#1d4ed8;font-size:16px;margin-bottom:8px}
.stat{color:#6b7280;margin:2px 0}
.stat b{color:#374151}
#tooltip{position:fixed;z-index:20;pointer-events:none;display:none;background:rgba(255,255,255,0.97);border:1px solid #9ca3af;border-radius:10px;padding:10px 14px;font-size:12px;max-width:300px}
.tt-name{color:#1d4ed8;font-weight:700;font-size:14px}
</style>
</head>
<body>
<div id="info">
  <h2 id="title"></h2>
  <div class="stat"><b id="n-nodes">0</b> persons</div>
  <div class="stat"><b id="n-edges">0</b> relations</div>
  <div class="stat" style="margin-top:8px;color:#9ca3af;font-size:11px;">drag to pan / scroll to zoom</div>
</div>
<div id="tooltip"></div>
<canvas id="canvas"></canvas>
<script>
"use strict";
const NODES=%s;
const EDGES=%s;
const TITLE=%s;

document.getElementById('title').textContent=TITLE;
document.getElementById('n-nodes').textContent=NODES.length;
document.getElementById('n-edges').textContent=EDGES.length;

const canvas=document.getElementById('canvas');
const ctx=canvas.getContext('2d');
let W,H;
function resize(){W=canvas.width=window.innerWidth;H=canvas.height=window.innerHeight;draw()}

let camera={x:0,y:0,zoom:1},drag=null;
function toScreen(x,y){return[(x-camera.x)*camera.zoom,(y-camera.y)*camera.zoom]}
function toWorld(sx,sy){return[sx/camera.zoom+camera.x,sy/camera.zoom+camera.y]}
const byId={};NODES.forEach(n=>{byId[n.id]=n});

function arrow(e){
  const to=byId[e.to];if(!to)return;
  const[cx,cy]=toScreen(e.control.x,e.control.y),[ex,ey]=toScreen(e.end.x,e.end.y);
  const angle=Math.atan2(ey-cy,ex-cx);
  const tr=to.radius*camera.zoom;
  const tx=ex-Math.cos(angle)*tr,ty=ey-Math.sin(angle)*tr;
  ctx.beginPath();ctx.moveTo(tx,ty);
  ctx.lineTo(tx-10*Math.cos(angle-0.4),ty-10*Math.sin(angle-0.4));
  ctx.lineTo(tx-10*Math.cos(angle+0.4),ty-10*Math.sin(angle+0.4));
  ctx.closePath();ctx.fillStyle=e.stroke;ctx.fill();
}

function draw(){
  if(!W)return;
  ctx.clearRect(0,0,W,H);
  for(const e of EDGES){
    const[sx,sy]=toScreen(e.start.x,e.start.y),[cx,cy]=toScreen(e.control.x,e.control.y),[ex,ey]=toScreen(e.end.x,e.end.y);
    ctx.beginPath();ctx.moveTo(sx,sy);ctx.quadraticCurveTo(cx,cy,ex,ey);
    ctx.strokeStyle=e.stroke;ctx.lineWidth=2;ctx.stroke();
    arrow(e);
    const[lx,ly]=toScreen(e.label_at.x,e.label_at.y-5);
    ctx.font='12px -apple-system,sans-serif';ctx.fillStyle='#374151';ctx.textAlign='center';
    ctx.fillText(e.display_label,lx,ly);
  }
  for(const n of NODES){
    const[sx,sy]=toScreen(n.x,n.y);
    const r=n.radius*camera.zoom;
    ctx.beginPath();ctx.arc(sx,sy,r,0,Math.PI*2);
    ctx.fillStyle=n.fill;ctx.fill();
    ctx.strokeStyle=n.stroke;ctx.lineWidth=2;ctx.stroke();
    ctx.font=(n.selected?'bold ':'')+Math.max(11,12*camera.zoom)+'px -apple-system,sans-serif';
    ctx.fillStyle='#374151';ctx.textAlign='center';
    ctx.fillText(n.name,sx,sy+r+15*camera.zoom);
  }
}

function findNode(sx,sy){
  const[wx,wy]=toWorld(sx,sy);
  for(let i=NODES.length-1;i>=0;i--){
    const n=NODES[i],dx=n.x-wx,dy=n.y-wy;
    if(dx*dx+dy*dy<n.radius*n.radius)return n;
  }
  return null;
}

canvas.addEventListener('mousedown',e=>{drag={sx:e.clientX,sy:e.clientY,cx:camera.x,cy:camera.y}});
canvas.addEventListener('mousemove',e=>{
  if(drag){
    camera.x=drag.cx-(e.clientX-drag.sx)/camera.zoom;
    camera.y=drag.cy-(e.clientY-drag.sy)/camera.zoom;
    draw();
  }
  const n=findNode(e.clientX,e.clientY);
  const tt=document.getElementById('tooltip');
  if(n){
    tt.textContent='';
    const nameEl=document.createElement('div');nameEl.className='tt-name';nameEl.textContent=n.name;tt.appendChild(nameEl);
    tt.style.display='block';tt.style.left=(e.clientX+16)+'px';tt.style.top=(e.clientY+16)+'px';
  }else{tt.style.display='none'}
});
window.addEventListener('mouseup',()=>{drag=null});
canvas.addEventListener('wheel',e=>{
  e.preventDefault();
  const[wx,wy]=toWorld(e.clientX,e.clientY);
  camera.zoom=Math.min(4,Math.max(0.1,camera.zoom*(e.deltaY<0?1.1:0.9)));
  camera.x=wx-e.clientX/camera.zoom;camera.y=wy-e.clientY/camera.zoom;
  draw();
},{passive:false});
window.addEventListener('resize',resize);
resize();
</script>
</body>
</html>
`, html.EscapeString(title), nodesJSON, edgesJSON, mustJSON(title))
}

func mustJSON(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}
